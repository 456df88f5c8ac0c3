package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront/pkg/database"

// TracedDB wraps a DBTX so every statement runs inside a client span.
// Statements slower than the threshold are logged as warnings; a zero
// threshold disables that.
type TracedDB struct {
	db            DBTX
	tracer        trace.Tracer
	slowThreshold time.Duration
	logger        *slog.Logger
}

// NewTracedDB wraps db using the global tracer provider.
func NewTracedDB(db DBTX, slowThreshold time.Duration, logger *slog.Logger) *TracedDB {
	return &TracedDB{
		db:            db,
		tracer:        otel.Tracer(tracerName),
		slowThreshold: slowThreshold,
		logger:        logger,
	}
}

func (t *TracedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, end := t.start(ctx, sql)
	tag, err := t.db.Exec(ctx, sql, args...)
	end(err)
	return tag, err
}

func (t *TracedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, end := t.start(ctx, sql)
	rows, err := t.db.Query(ctx, sql, args...)
	end(err)
	return rows, err
}

// QueryRow ends its span when the row is scanned.
func (t *TracedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, end := t.start(ctx, sql)
	return tracedRow{row: t.db.QueryRow(ctx, sql, args...), end: end}
}

func (t *TracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.db.Begin(ctx)
}

func (t *TracedDB) start(ctx context.Context, sql string) (context.Context, func(error)) {
	op := operation(sql)
	began := time.Now()
	ctx, span := t.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", sql),
		),
	)

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if t.slowThreshold <= 0 || t.logger == nil {
			return
		}
		if elapsed := time.Since(began); elapsed >= t.slowThreshold {
			t.logger.WarnContext(ctx, "slow query",
				slog.String("operation", op),
				slog.Duration("duration", elapsed),
			)
		}
	}
}

type tracedRow struct {
	row pgx.Row
	end func(error)
}

func (r tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	r.end(err)
	return err
}

// operation is the statement's leading keyword, e.g. SELECT.
func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}
