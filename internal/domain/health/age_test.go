package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeInYears(t *testing.T) {
	birth := date(1990, time.June, 15)

	cases := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"day before birthday", date(2020, time.June, 14), 29},
		{"on birthday", date(2020, time.June, 15), 30},
		{"after birthday", date(2020, time.December, 1), 30},
		{"earlier month", date(2020, time.January, 30), 29},
		{"birth day itself", birth, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AgeInYears(birth, tc.asOf)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAgeInYears_MonotonicByYear(t *testing.T) {
	birth := date(2001, time.March, 3)
	asOf := date(2030, time.April, 1)

	a1, err := AgeInYears(birth, asOf)
	require.NoError(t, err)
	a2, err := AgeInYears(birth, asOf.AddDate(1, 0, 0))
	require.NoError(t, err)
	again, err := AgeInYears(birth, asOf)
	require.NoError(t, err)

	assert.Equal(t, a1+1, a2)
	assert.Equal(t, a1, again)
}

func TestAgeInYears_Invalid(t *testing.T) {
	_, err := AgeInYears(time.Time{}, date(2020, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = AgeInYears(date(2021, 1, 2), date(2021, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseBirthDate(t *testing.T) {
	got, err := ParseBirthDate(" 1985-02-28 ")
	require.NoError(t, err)
	assert.Equal(t, date(1985, time.February, 28), got)

	for _, in := range []string{"", "28/02/1985", "1985-13-01"} {
		_, err := ParseBirthDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}
