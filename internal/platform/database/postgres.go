// Package database opens the Postgres pool and applies goose migrations.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 2 * time.Second

// Open creates a pgx pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating db pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database (%s): %w", RedactDSN(dsn), err)
	}
	return pool, nil
}

// redactedSecret replaces credentials in logged DSNs.
const redactedSecret = "xxxxx"

// secretParams are connection parameters that carry credentials.
var secretParams = []string{"password", "sslpassword", "sslkey"}

// RedactDSN renders dsn without credentials. URL DSNs keep their shape with the password masked;
// key/value DSNs are reduced to host, port, database and user.
func RedactDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return redactedSecret
		}
		if u.RawQuery != "" {
			q := u.Query()
			for _, key := range secretParams {
				if q.Has(key) {
					q.Set(key, redactedSecret)
				}
			}
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}

	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return redactedSecret
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s", cfg.Host, cfg.Port, cfg.Database, cfg.User)
}
