package store

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// Classify converts a driver, network or context error into a StoreError.
// Errors that are already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return domain.NewError(kindFor(err), op, err)
}

func kindFor(err error) domain.ErrorKind {
	if errors.Is(err, context.Canceled) {
		return domain.KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return domain.KindConnectTimeout
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return domain.KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return postgresKind(pgErr.Code)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return sqliteKind(liteErr.Code)
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return domain.KindConnectRefused
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return domain.KindNetworkUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.KindConnectTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.KindNetworkUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.KindNetworkUnreachable
	}

	return domain.KindStoreUnavailable
}

// postgresKind maps SQLSTATE codes to the taxonomy.
func postgresKind(code string) domain.ErrorKind {
	switch code {
	case "28000", "28P01": // invalid_authorization_specification, invalid_password
		return domain.KindAuthFailure
	case "23502", "23505", "23514", "22P02", "22023": // constraint and input violations
		return domain.KindValidation
	case "57014": // query_canceled (statement_timeout)
		return domain.KindConnectTimeout
	case "08001", "08004", "08006", "57P01", "57P02", "57P03", "53300":
		return domain.KindStoreUnavailable
	}
	return domain.KindStoreUnavailable
}

func sqliteKind(code sqlite3.ErrNo) domain.ErrorKind {
	switch code {
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return domain.KindConnectRefused
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return domain.KindConnectTimeout
	case sqlite3.ErrAuth, sqlite3.ErrPerm, sqlite3.ErrReadonly:
		return domain.KindAuthFailure
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch:
		return domain.KindValidation
	}
	return domain.KindStoreUnavailable
}
