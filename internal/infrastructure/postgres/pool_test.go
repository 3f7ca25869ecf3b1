package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracerAt(threshold time.Duration, clock *time.Time) (*slowQueryTracer, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	t := newSlowQueryTracer(logger, threshold)
	t.now = func() time.Time { return *clock }
	return t, hook
}

func TestSlowQueryTracer(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr, hook := tracerAt(100*time.Millisecond, &clock)

	ctx := tr.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT id\n\t  FROM users"})
	clock = clock.Add(20 * time.Millisecond)
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	assert.Empty(t, hook.AllEntries())

	ctx = tr.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "UPDATE users SET is_active = false"})
	clock = clock.Add(250 * time.Millisecond)
	tr.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("UPDATE 3"), Err: errors.New("boom")})

	require.Len(t, hook.AllEntries(), 1)
	e := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, "slow query", e.Message)
	assert.Equal(t, int64(250), e.Data["duration_ms"])
	assert.Equal(t, int64(3), e.Data["rows"])
	assert.EqualError(t, e.Data[logrus.ErrorKey].(error), "boom")
}

func TestSlowQueryTracerIgnoresUntracedContext(t *testing.T) {
	clock := time.Now()
	tr, hook := tracerAt(time.Nanosecond, &clock)
	tr.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	assert.Empty(t, hook.AllEntries())
}

func TestCompactSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1 FROM users WHERE id = $1", compactSQL("  SELECT 1\n FROM users\n\tWHERE id = $1 "))
}
