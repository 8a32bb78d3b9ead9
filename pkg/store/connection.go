package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// ConnectOptions controls how Connect retries an unreachable database.
type ConnectOptions struct {
	Attempts int
	Delay    time.Duration
}

// DefaultConnectOptions waits up to a minute for the database to come up.
var DefaultConnectOptions = ConnectOptions{Attempts: 30, Delay: 2 * time.Second}

// Connect opens databaseURL and pings it, retrying until it answers, the
// attempts run out or ctx is done.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*sqlx.DB, Dialect, error) {
	d, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, Dialect{}, err
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	for i := 0; i < opts.Attempts; i++ {
		var db *sqlx.DB
		db, err = sqlx.Open(d.Driver, dsn)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err == nil {
				if d.Name == SQLite.Name {
					// One writer at a time; avoids SQLITE_BUSY under concurrent requests.
					db.SetMaxOpenConns(1)
				}
				slog.InfoContext(ctx, "connected to database", "dialect", d.Name)
				return db, d, nil
			}
			_ = db.Close()
		}

		if i == opts.Attempts-1 {
			break
		}
		slog.WarnContext(ctx, "database not reachable, retrying",
			"dialect", d.Name, "attempt", i+1, "delay", opts.Delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, Dialect{}, ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	return nil, Dialect{}, fmt.Errorf("could not connect to %s after %d attempts: %w", d.Name, opts.Attempts, err)
}
