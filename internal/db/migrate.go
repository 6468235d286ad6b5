package db

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations. It opens its own
// database/sql connection because goose does not speak pgxpool.
func Migrate(ctx context.Context, dbURL string) error {
	sqlDB, err := sql.Open("pgx", dbURL)

	if err != nil {
		return err
	}

	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations)

	err = goose.SetDialect("pgx")

	if err != nil {
		return err
	}

	return goose.UpContext(ctx, sqlDB, "migrations")
}
