// Package database handles database connections and schema management.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agora/internal/config"
	"agora/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QueryLogger sends GORM's SQL trace to slog. Failed and slow statements
// are always reported; the full trace only at logger.Info.
type QueryLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger returns a QueryLogger at level with a 200ms slow threshold.
func NewGormLogger(level logger.LogLevel) *QueryLogger {
	return &QueryLogger{level: level, slowThreshold: 200 * time.Millisecond}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *QueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Info, slog.LevelInfo, fmt.Sprintf(msg, data...))
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, fmt.Sprintf(msg, data...))
}

func (l *QueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Error, slog.LevelError, fmt.Sprintf(msg, data...))
}

func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var msg string
	var level slog.Level
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		msg, level = "query failed", slog.LevelError
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		observability.SlowQueries.Inc()
		msg, level = "slow query", slog.LevelWarn
	default:
		msg, level = "query", slog.LevelDebug
	}
	if !l.enabled(level) {
		return
	}

	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
		slog.String("correlation_id", observability.ExtractCorrelationID(ctx)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.Log(ctx, level, msg, attrs...)
}

func (l *QueryLogger) emit(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string) {
	if l.level >= threshold {
		slog.Log(ctx, level, msg)
	}
}

// enabled maps a slog level back onto the GORM level threshold.
func (l *QueryLogger) enabled(level slog.Level) bool {
	switch {
	case level >= slog.LevelError:
		return l.level >= logger.Error
	case level >= slog.LevelWarn:
		return l.level >= logger.Warn
	default:
		return l.level >= logger.Info
	}
}

// DSN builds the PostgreSQL connection string for cfg.
func DSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
}

// ConnectOptions control what Connect does after opening the pool.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens a database connection and, outside production, auto-migrates the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: !cfg.IsProduction()})
}

// ConnectWithOptions opens a database connection using the provided configuration.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: NewGormLogger(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	slog.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)

	if opts.ApplySchema {
		if err := Migrate(context.Background(), db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate applies the GORM auto-migration for every persistent model.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.InfoContext(ctx, "database migration completed")
	return nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute)
	}
	return nil
}
