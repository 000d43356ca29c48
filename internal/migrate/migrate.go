// Package migrate applies embedded SQL migrations on startup.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/migrations"
)

// VersionTable keeps goose bookkeeping apart from the hosted review schema.
const VersionTable = "supermock_admin_goose_version"

// Up applies pending migrations and returns the schema version afterwards.
// Only app-owned tables such as the rate limit buckets are migrated.
func Up(ctx context.Context, dsn string, log *zap.Logger) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("open migration db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(VersionTable)
	goose.SetLogger(zapLogger{log: log.Named("goose")})
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return before, fmt.Errorf("apply migrations: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return before, fmt.Errorf("read schema version: %w", err)
	}

	if after == before {
		log.Info("schema up to date", zap.Int64("version", after))
	} else {
		log.Info("schema migrated", zap.Int64("from", before), zap.Int64("to", after))
	}
	return after, nil
}

// zapLogger routes goose output through the service logger.
type zapLogger struct {
	log *zap.Logger
}

func (l zapLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level; goose returns the failure to Up as well.
func (l zapLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
