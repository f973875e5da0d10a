package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collection_created ON documents (collection, created_at)`,
}

// pgQuerier is the subset shared by *pgxpool.Pool and *pgx.Conn.
type pgQuerier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore keeps documents as JSONB rows. It runs either on a pool (the
// shared primary connection) or on a single connection (direct access).
type PostgresStore struct {
	db    pgQuerier
	close func()
}

// NewPostgresPool opens a pooled store and ensures the schema exists.
func NewPostgresPool(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, "connect", fmt.Errorf("invalid database url: %w", err))
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: pool, close: pool.Close}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// DialPostgres opens a single, unpooled connection. The schema is assumed to
// exist; a direct connection only runs when the primary already set it up or
// failed to reach the server at all.
func DialPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{
		db: conn,
		close: func() {
			_ = conn.Close(context.Background())
		},
	}, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Find scans the collection and filters in Go so that loose matching of
// string query values behaves as it does in the cache and fixtures.
func (s *PostgresStore) Find(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	rows, err := s.db.Query(ctx, "SELECT data FROM documents WHERE collection = $1 ORDER BY created_at, id", collection)
	if err != nil {
		return nil, Classify("find", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, Classify("find", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("find", err)
	}
	return domain.ApplyQuery(docs, q), nil
}

func (s *PostgresStore) FindOne(ctx context.Context, collection, id string) (domain.Document, error) {
	var raw []byte
	if err := s.db.QueryRow(ctx, "SELECT data FROM documents WHERE collection = $1 AND id = $2", collection, id).Scan(&raw); err != nil {
		return nil, Classify("find_one", err)
	}
	return decodeDocument(raw)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	id := doc.ID()
	if id == "" {
		return nil, domain.Errorf(domain.KindValidation, "insert", "document has no identity")
	}
	stored := doc.Clone()
	stored[domain.IDField] = id
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, "insert", err)
	}

	err = s.withTx(ctx, "insert", func(tx pgx.Tx) error {
		if err := clearExclusivePostgres(ctx, tx, collection, id, stored, opts.Exclusive); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
			 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			collection, id, string(raw),
		); err != nil {
			return err
		}
		return opts.Check()
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, changes domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	var merged domain.Document
	err := s.withTx(ctx, "update", func(tx pgx.Tx) error {
		var raw []byte
		if err := tx.QueryRow(ctx,
			"SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE",
			collection, id,
		).Scan(&raw); err != nil {
			return err
		}
		current, err := decodeDocument(raw)
		if err != nil {
			return err
		}
		merged = current.Merge(changes)
		if err := clearExclusivePostgres(ctx, tx, collection, id, merged, opts.Exclusive); err != nil {
			return err
		}
		encoded, err := json.Marshal(merged)
		if err != nil {
			return domain.NewError(domain.KindValidation, "update", err)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE documents SET data = $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2",
			collection, id, string(encoded),
		); err != nil {
			return err
		}
		return opts.Check()
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string, opts domain.WriteOptions) error {
	return s.withTx(ctx, "delete", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", collection, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.Errorf(domain.KindNotFound, "delete", "document %s not found in %s", id, collection)
		}
		return opts.Check()
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return Classify("ping", s.db.Ping(ctx))
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Classify(op, err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback(context.Background())
	}()
	if err := fn(tx); err != nil {
		return Classify(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Classify(op, err)
	}
	return nil
}

// clearExclusivePostgres takes a transaction-scoped advisory lock keyed by the
// collection and field, so only writers touching the same invariant serialize.
func clearExclusivePostgres(ctx context.Context, tx pgx.Tx, collection, id string, doc domain.Document, field string) error {
	if field == "" || !isTrue(doc[field]) {
		return nil
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", collection+"."+field); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE documents
		 SET data = jsonb_set(data, ARRAY[$2::text], 'false'::jsonb), updated_at = now()
		 WHERE collection = $1 AND id <> $3 AND data->>$2 = 'true'`,
		collection, field, id,
	)
	return err
}
