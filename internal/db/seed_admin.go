package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/repo/postgres"
	"github.com/pagedesk/blogapi/internal/security"
)

// EnsureAdminUser seeds the first user from the environment so the
// bearer-protected create-user endpoint never has to be public.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	users := postgres.NewUsersRepo(pool)

	_, err = users.Create(ctx, cfg.AdminUsername, hash)

	// a concurrent boot may have won the race; that is fine
	if errors.Is(err, postgres.ErrUsernameTaken) {
		return nil
	}

	return err
}
