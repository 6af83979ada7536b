package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/go-libsql"
)

var remoteSchemes = []string{"libsql://", "https://", "http://", "wss://", "ws://"}

// Open connects to the document store. A remote libSQL URL is used as is,
// with authToken appended when set. Anything else is treated as a local
// SQLite path and configured for concurrent use: WAL journal mode, 5 s busy
// timeout, foreign keys enabled.
func Open(ctx context.Context, dsn, authToken string) (*sql.DB, error) {
	if isRemote(dsn) {
		return openRemote(ctx, dsn, authToken)
	}

	db, err := sql.Open("libsql", "file:"+dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// libSQL rejects Exec for PRAGMAs that return rows, so drain them via
	// QueryContext instead.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func openRemote(ctx context.Context, dsn, authToken string) (*sql.DB, error) {
	if authToken != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("parsing store url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening remote database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging remote database: %w", err)
	}
	return db, nil
}

func isRemote(dsn string) bool {
	for _, s := range remoteSchemes {
		if strings.HasPrefix(dsn, s) {
			return true
		}
	}
	return false
}
