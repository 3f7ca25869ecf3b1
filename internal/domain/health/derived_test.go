package health

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMI(t *testing.T) {
	cases := []struct {
		height, weight float64
	}{
		{175, 70},
		{160, 55.5},
		{182.3, 95.1},
		{120, 25},
	}
	for _, tc := range cases {
		got, err := BMI(tc.height, tc.weight)
		require.NoError(t, err)
		m := tc.height / 100
		want := math.Round(tc.weight/(m*m)*100) / 100
		assert.Equal(t, want, got)
	}

	got, err := BMI(175, 70)
	require.NoError(t, err)
	assert.Equal(t, 22.86, got)
}

func TestBMI_InvalidHeight(t *testing.T) {
	for _, h := range []float64{0, -170} {
		_, err := BMI(h, 70)
		assert.ErrorIs(t, err, ErrInvalidMeasurement)
	}
}

func TestPercentChange(t *testing.T) {
	got, err := PercentChange(110, 90)
	require.NoError(t, err)
	assert.Equal(t, 22.2, got)

	got, err = PercentChange(90, 110)
	require.NoError(t, err)
	assert.Equal(t, -18.2, got)

	got, err = PercentChange(120, 120)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = PercentChange(5, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}
