package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Services whose tables RunMigrations knows how to create.
const (
	ServiceAPI      = "api"
	ServiceActivity = "activity"
)

// RunMigrations creates the tables a service needs when they do not exist yet.
// It never alters existing tables; schema evolution is left to external tooling.
func RunMigrations(ctx context.Context, db *sqlx.DB, d Dialect, service string) error {
	for i, m := range serviceMigrations(d, service) {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d for %s: %w", i+1, service, err)
		}
	}
	slog.InfoContext(ctx, "migrations completed", "service", service, "dialect", d.Name)
	return nil
}

func serviceMigrations(d Dialect, service string) []string {
	switch service {
	case ServiceActivity:
		return activityMigrations(d)
	default:
		return apiMigrations(d)
	}
}

func apiMigrations(d Dialect) []string {
	switch {
	case d.isPostgres():
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(120) NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id BIGSERIAL PRIMARY KEY,
				title VARCHAR(200) NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id)`,
		}
	case d.Name == MySQL.Name:
		// InnoDB indexes foreign key columns on its own.
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(120) NOT NULL UNIQUE,
				created_at DATETIME(6) NOT NULL
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS posts (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(200) NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				user_id BIGINT NOT NULL,
				CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(120) NOT NULL UNIQUE,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title VARCHAR(200) NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id)`,
		}
	}
}

func activityMigrations(d Dialect) []string {
	engine := ""
	if d.Name == MySQL.Name {
		engine = " ENGINE=InnoDB"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			event_id VARCHAR(36) PRIMARY KEY,
			processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)` + engine,
		`CREATE TABLE IF NOT EXISTS activity_metrics (
			metric_date VARCHAR(10) NOT NULL,
			event_type VARCHAR(50) NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (metric_date, event_type)
		)` + engine,
	}
}
