package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// Backend selects and configures the backing store.
type Backend struct {
	Kind     string // "postgres", "sqlite" or "memory"
	DSN      string // postgres connection string
	DataDir  string // sqlite database directory
	MaxConns int
}

// SqlitePath returns the database file used by the sqlite backend.
func (b Backend) SqlitePath() string {
	return filepath.Join(b.DataDir, "furniture.db")
}

// Open returns the opener for the shared pooled connection and the dialer for
// supplementary direct connections.
//
// Supported backends:
//
//	"postgres" - pgx pool as primary, single pgx connection for direct access
//	"sqlite"   - SQLite database at DataDir/furniture.db
//	"memory"   - in-memory (ephemeral, for development and tests)
func Open(b Backend) (domain.Opener, domain.Dialer, error) {
	switch b.Kind {
	case "postgres":
		if b.DSN == "" {
			return nil, nil, fmt.Errorf("postgres backend requires a database url")
		}
		opener := func(ctx context.Context) (domain.Store, error) {
			s, err := NewPostgresPool(ctx, b.DSN, b.MaxConns)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		dialer := func(ctx context.Context) (domain.Store, func(), error) {
			s, err := DialPostgres(ctx, b.DSN)
			if err != nil {
				return nil, nil, err
			}
			return s, func() { s.Close() }, nil
		}
		return opener, dialer, nil
	case "sqlite", "":
		path := b.SqlitePath()
		opener := func(ctx context.Context) (domain.Store, error) {
			s, err := NewSqliteStore(ctx, path, b.MaxConns)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		dialer := func(ctx context.Context) (domain.Store, func(), error) {
			s, err := NewSqliteStore(ctx, path, 1)
			if err != nil {
				return nil, nil, err
			}
			return s, func() { s.Close() }, nil
		}
		return opener, dialer, nil
	case "memory":
		shared := NewMemoryStore()
		opener := func(ctx context.Context) (domain.Store, error) {
			return shared, nil
		}
		dialer := func(ctx context.Context) (domain.Store, func(), error) {
			return shared, func() {}, nil
		}
		return opener, dialer, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q (supported: postgres, sqlite, memory)", b.Kind)
	}
}
