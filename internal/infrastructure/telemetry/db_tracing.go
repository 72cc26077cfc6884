package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the otelgorm plugin and slow-query marking.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus callbacks that mark slow
// queries and record gorm errors on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerTimingCallbacks(db, cfg.SlowQueryThresh); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// after callbacks run ahead of otelgorm's so its span is still recording.
func registerTimingCallbacks(db *gorm.DB, thresh time.Duration) error {
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		annotateSpan(tx, thresh)
	}

	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("crm_timing:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("crm_timing:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("crm_timing:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("crm_timing:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("crm_timing:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("crm_timing:before_raw", before) },
		func() error {
			return cb.Create().After("gorm:create").Before("otel:after_create").Register("crm_timing:after_create", after)
		},
		func() error {
			return cb.Query().After("gorm:query").Before("otel:after_query").Register("crm_timing:after_query", after)
		},
		func() error {
			return cb.Update().After("gorm:update").Before("otel:after_update").Register("crm_timing:after_update", after)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("crm_timing:after_delete", after)
		},
		func() error {
			return cb.Row().After("gorm:row").Before("otel:after_row").Register("crm_timing:after_row", after)
		},
		func() error {
			return cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("crm_timing:after_raw", after)
		},
	}
	for _, register := range regs {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func annotateSpan(tx *gorm.DB, thresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
