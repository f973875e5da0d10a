package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// SqliteStore stores every collection in a single SQLite database.
//
// Tables:
//
//	documents(collection, id, data, created_at, updated_at)  PRIMARY KEY (collection, id)
//
// Transactions are opened with BEGIN IMMEDIATE, so a write holds the database
// write lock for its whole read-modify-write.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (creating if needed) the database at dbPath.
func NewSqliteStore(ctx context.Context, dbPath string, maxConns int) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Find(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM documents WHERE collection = ? ORDER BY rowid", collection)
	if err != nil {
		return nil, Classify("find", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, Classify("find", err)
		}
		doc, err := decodeDocument([]byte(raw))
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

func (s *SqliteStore) FindOne(ctx context.Context, collection, id string) (domain.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&raw)
	if err != nil {
		return nil, Classify("find_one", err)
	}
	return decodeDocument([]byte(raw))
}

func (s *SqliteStore) Insert(ctx context.Context, collection string, doc domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	id := doc.ID()
	if id == "" {
		return nil, domain.Errorf(domain.KindValidation, "insert", "document has no identity")
	}
	stored := doc.Clone()
	stored[domain.IDField] = id

	err := s.withTx(ctx, "insert", func(tx *sql.Tx) error {
		if err := s.clearExclusive(ctx, tx, collection, id, stored, opts.Exclusive); err != nil {
			return err
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return domain.NewError(domain.KindValidation, "insert", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
			 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
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

func (s *SqliteStore) Update(ctx context.Context, collection, id string, changes domain.Document, opts domain.WriteOptions) (domain.Document, error) {
	var merged domain.Document
	err := s.withTx(ctx, "update", func(tx *sql.Tx) error {
		var raw string
		if err := tx.QueryRowContext(ctx, "SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&raw); err != nil {
			return err
		}
		current, err := decodeDocument([]byte(raw))
		if err != nil {
			return err
		}
		merged = current.Merge(changes)
		if err := s.clearExclusive(ctx, tx, collection, id, merged, opts.Exclusive); err != nil {
			return err
		}
		encoded, err := json.Marshal(merged)
		if err != nil {
			return domain.NewError(domain.KindValidation, "update", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?",
			string(encoded), collection, id,
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

func (s *SqliteStore) Delete(ctx context.Context, collection, id string, opts domain.WriteOptions) error {
	return s.withTx(ctx, "delete", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.Errorf(domain.KindNotFound, "delete", "document %s not found in %s", id, collection)
		}
		return opts.Check()
	})
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return Classify("ping", s.db.PingContext(ctx))
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return Classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return Classify(op, err)
	}
	return nil
}

func (s *SqliteStore) clearExclusive(ctx context.Context, tx *sql.Tx, collection, id string, doc domain.Document, field string) error {
	if field == "" || !isTrue(doc[field]) {
		return nil
	}
	rows, err := tx.QueryContext(ctx, "SELECT id, data FROM documents WHERE collection = ? AND id <> ?", collection, id)
	if err != nil {
		return err
	}
	updates := make(map[string]string)
	for rows.Next() {
		var otherID, raw string
		if err := rows.Scan(&otherID, &raw); err != nil {
			rows.Close()
			return err
		}
		other, err := decodeDocument([]byte(raw))
		if err != nil {
			rows.Close()
			return err
		}
		if isTrue(other[field]) {
			other[field] = false
			encoded, err := json.Marshal(other)
			if err != nil {
				rows.Close()
				return err
			}
			updates[otherID] = string(encoded)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for otherID, raw := range updates {
		if _, err := tx.ExecContext(ctx,
			"UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?",
			raw, collection, otherID,
		); err != nil {
			return err
		}
	}
	return nil
}

func decodeDocument(raw []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.NewError(domain.KindUnexpectedResult, "decode", fmt.Errorf("failed to decode stored document: %w", err))
	}
	return doc, nil
}
