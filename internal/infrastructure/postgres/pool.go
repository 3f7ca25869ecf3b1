package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PoolOptions tunes the connection pool. A zero SlowQuery or a nil Logger
// disables query tracing.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	SlowQuery       time.Duration
	Logger          *logrus.Logger
}

func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = opts.MinConns
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.SlowQuery > 0 && opts.Logger != nil {
		cfg.ConnConfig.Tracer = newSlowQueryTracer(opts.Logger, opts.SlowQuery)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

// slowQueryTracer warns about statements that run at or past the threshold.
type slowQueryTracer struct {
	logger    *logrus.Logger
	threshold time.Duration
	now       func() time.Time
}

var _ pgx.QueryTracer = (*slowQueryTracer)(nil)

func newSlowQueryTracer(logger *logrus.Logger, threshold time.Duration) *slowQueryTracer {
	return &slowQueryTracer{logger: logger, threshold: threshold, now: time.Now}
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: t.now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(st.at)
	if elapsed < t.threshold {
		return
	}
	entry := t.logger.WithFields(logrus.Fields{
		"duration_ms": elapsed.Milliseconds(),
		"sql":         compactSQL(st.sql),
		"rows":        data.CommandTag.RowsAffected(),
	})
	if data.Err != nil {
		entry = entry.WithError(data.Err)
	}
	entry.Warn("slow query")
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
