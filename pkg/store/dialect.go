package store

import (
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
)

// Dialect describes how the store talks to one database/sql driver.
type Dialect struct {
	// Name is used in logs, metrics and to pick the schema.
	Name string
	// Driver is the database/sql driver name.
	Driver string

	placeholder sq.PlaceholderFormat
	returning   bool
}

var (
	SQLite   = Dialect{Name: "sqlite3", Driver: "sqlite3", placeholder: sq.Question}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", placeholder: sq.Dollar, returning: true}
	PGX      = Dialect{Name: "pgx", Driver: "pgx", placeholder: sq.Dollar, returning: true}
	MySQL    = Dialect{Name: "mysql", Driver: "mysql", placeholder: sq.Question}
)

// isPostgres reports whether the dialect speaks PostgreSQL, whatever the driver.
func (d Dialect) isPostgres() bool {
	return d.Name == Postgres.Name || d.Name == PGX.Name
}

// ParseURL resolves the dialect for databaseURL and returns the DSN to hand to
// its driver. A value without a scheme is treated as a SQLite file path.
//
//	sqlite3://app.db                       -> sqlite3, file:app.db?_foreign_keys=on...
//	postgres://u:p@host:5432/db            -> lib/pq
//	pgx://u:p@host:5432/db                 -> jackc/pgx stdlib
//	mysql://u:p@host:3306/db               -> go-sql-driver/mysql
func ParseURL(databaseURL string) (Dialect, string, error) {
	if databaseURL == "" {
		return Dialect{}, "", fmt.Errorf("empty database URL")
	}

	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return SQLite, sqliteDSN(databaseURL), nil
	}

	switch scheme {
	case "sqlite", "sqlite3":
		return SQLite, sqliteDSN(rest), nil
	case "postgres", "postgresql":
		return Postgres, databaseURL, nil
	case "pgx":
		return PGX, "postgres://" + rest, nil
	case "mysql":
		dsn, err := mysqlDSN(databaseURL)
		if err != nil {
			return Dialect{}, "", err
		}
		return MySQL, dsn, nil
	default:
		return Dialect{}, "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

func sqliteDSN(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	// Foreign keys are off by default in SQLite.
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func mysqlDSN(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	return cfg.FormatDSN(), nil
}

// OnConflict returns the INSERT suffix that applies set when a row collides on
// conflictCols. An empty set keeps the existing row untouched.
//
//	MySQL:           ON DUPLICATE KEY UPDATE count = activity_metrics.count + 1
//	PostgreSQL/SQLite: ON CONFLICT (metric_date, event_type) DO UPDATE SET count = activity_metrics.count + 1
func (d Dialect) OnConflict(conflictCols []string, set string) string {
	if len(conflictCols) == 0 {
		return ""
	}
	if d.Name == MySQL.Name {
		if set == "" {
			set = conflictCols[0] + " = " + conflictCols[0]
		}
		return "ON DUPLICATE KEY UPDATE " + set
	}
	target := "ON CONFLICT (" + strings.Join(conflictCols, ", ") + ")"
	if set == "" {
		return target + " DO NOTHING"
	}
	return target + " DO UPDATE SET " + set
}
