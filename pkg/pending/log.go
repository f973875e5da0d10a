// Package pending keeps a durable, append-only record of writes that exhausted
// every strategy so they can be reconciled once the store is reachable again.
package pending

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// FileName is the log's name inside the data directory.
const FileName = "pending_writes.log"

// ErrLocked is returned by Open when another process owns the log.
var ErrLocked = errors.New("pending log is in use by another process")

// Option configures a Log
type Option func(*Log)

// WithFsync controls whether every append is synced to disk. Defaults to true.
func WithFsync(enabled bool) Option {
	return func(l *Log) {
		l.fsync = enabled
	}
}

func newLog(path string) *Log {
	return &Log{
		path:    path,
		fsync:   true,
		pending: make(map[int64]*Record),
		latest:  make(map[string]int64),
	}
}

// Open reads the log at path, rebuilding the index of unreconciled writes, and
// opens it for appending. The log is owned by one process at a time through a
// lock file next to it; a second Open fails with ErrLocked until Close.
func Open(path string, opts ...Option) (*Log, error) {
	l := newLog(path)
	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pending log directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending log: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err := l.load(); err != nil {
		lock.Unlock()
		return nil, err
	}
	l.lock = lock

	if len(l.pending) > 0 {
		log.Printf("INFO: pending log %s holds %d unreconciled writes", path, len(l.pending))
	}
	return l, nil
}

// load rebuilds the index and opens the file for appending. The lock must be
// held.
func (l *Log) load() error {
	records, validLen, unterminated, err := readRecords(l.path)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(l.path); statErr == nil && info.Size() > validLen {
		// drop the torn tail so new appends start on a clean line
		if err := os.Truncate(l.path, validLen); err != nil {
			return fmt.Errorf("failed to truncate torn pending log: %w", err)
		}
	}
	for _, rec := range records {
		l.index(rec)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open pending log: %w", err)
	}
	if unterminated {
		if _, err := file.Write([]byte{'\n'}); err != nil {
			file.Close()
			return fmt.Errorf("failed to terminate pending log: %w", err)
		}
	}
	l.file = file
	return nil
}

// ReadPending returns the unreconciled writes in the log at path without
// taking ownership of it, so it can be inspected while a server runs.
func ReadPending(path string) ([]Record, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	l := newLog(path)
	for _, rec := range records {
		l.index(rec)
	}
	return l.Pending(), nil
}

func (l *Log) index(rec *Record) {
	if rec.LSN >= l.nextLSN {
		l.nextLSN = rec.LSN + 1
	}
	switch rec.Type {
	case RecordPending:
		if rec.Operation == nil {
			log.Printf("WARN: pending record lsn=%d has no operation, ignoring", rec.LSN)
			return
		}
		l.track(rec)
	case RecordReconciled:
		if existing, ok := l.pending[rec.Ref]; ok {
			l.untrack(existing)
		}
		l.reconciled++
	}
}

func (l *Log) track(rec *Record) {
	l.pending[rec.LSN] = rec
	doc := documentKey(rec.Operation)
	if newest, ok := l.latest[doc]; !ok || rec.LSN > newest {
		l.latest[doc] = rec.LSN
	}
}

func (l *Log) untrack(rec *Record) {
	delete(l.pending, rec.LSN)
	doc := documentKey(rec.Operation)
	if l.latest[doc] != rec.LSN {
		return
	}
	delete(l.latest, doc)
	// an older write to the same document may still be queued
	for _, other := range l.pending {
		if documentKey(other.Operation) == doc {
			l.track(other)
		}
	}
}

// ReadRecords reads every record in the file. A torn final line, left by a
// crash mid-append, is skipped; corruption anywhere else is an error.
func ReadRecords(path string) ([]*Record, error) {
	records, _, _, err := readRecords(path)
	return records, err
}

// readRecords also returns the length of the file up to the end of the last
// good record, and whether that record is missing its newline.
func readRecords(path string) ([]*Record, int64, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("failed to open pending log: %w", err)
	}

	var records []*Record
	var offset, validLen int64
	unterminated := false
	reader := bufio.NewReader(bytes.NewReader(raw))
	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		complete := readErr == nil
		offset += int64(len(line))
		line = bytes.TrimSpace(line)

		if len(line) > 0 {
			rec, err := decodeRecord(line)
			if err != nil {
				if !complete {
					log.Printf("WARN: skipping torn record at end of %s: %v", path, err)
					break
				}
				return nil, 0, false, fmt.Errorf("pending log %s line %d: %w", path, lineNo, err)
			}
			records = append(records, rec)
			validLen = offset
			unterminated = !complete
		} else if complete {
			validLen = offset
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, 0, false, fmt.Errorf("error reading pending log: %w", readErr)
		}
	}
	return records, validLen, unterminated, nil
}

func decodeRecord(line []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if rec.Checksum != calculateChecksum(&rec) {
		return nil, fmt.Errorf("checksum verification failed for LSN %d", rec.LSN)
	}
	return &rec, nil
}

func calculateChecksum(rec *Record) uint32 {
	recCopy := *rec
	recCopy.Checksum = 0

	data, err := json.Marshal(recCopy)
	if err != nil {
		return 0
	}
	return crc32.ChecksumIEEE(data)
}

// Append queues op unless it repeats the newest queued write for the same
// document. A write equal to an older one is queued again, since replaying in
// order must leave the document as the client last asked. It reports whether
// a new record was written.
func (l *Log) Append(op domain.Operation, attempts []domain.Attempt) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := op.Key()
	if lsn, ok := l.latest[documentKey(&op)]; ok && l.pending[lsn].Key == key {
		return false, nil
	}

	opCopy := op
	rec := &Record{
		Type:      RecordPending,
		Key:       key,
		Operation: &opCopy,
		Timestamp: time.Now().UTC(),
		Attempts:  attempts,
	}
	if err := l.writeRecord(rec); err != nil {
		return false, err
	}
	l.track(rec)
	log.Printf("WARN: queued %s as pending write lsn=%d", op, rec.LSN)
	return true, nil
}

func (l *Log) reconcile(rec *Record, outcome Outcome, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.pending[rec.LSN]
	if !ok {
		return nil
	}
	marker := &Record{
		Type:      RecordReconciled,
		Key:       rec.Key,
		Timestamp: time.Now().UTC(),
		Ref:       rec.LSN,
		Outcome:   outcome,
		Reason:    reason,
	}
	if err := l.writeRecord(marker); err != nil {
		return err
	}
	l.untrack(current)
	l.reconciled++
	return nil
}

// writeRecord must be called with l.mu held.
func (l *Log) writeRecord(rec *Record) error {
	if l.file == nil {
		return fmt.Errorf("pending log is closed")
	}
	rec.LSN = l.nextLSN
	rec.Checksum = calculateChecksum(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to pending log: %w", err)
	}
	if l.fsync {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync pending log: %w", err)
		}
	}
	l.nextLSN++
	return nil
}

// Pending returns unreconciled records in LSN order.
func (l *Log) Pending() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, len(l.pending))
	for _, rec := range l.pending {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LSN < out[j].LSN })
	return out
}

// Len returns the number of unreconciled writes.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

// Replay applies unreconciled writes in LSN order. A write the store rejects as
// invalid, or whose target no longer exists, is marked rejected. A connectivity
// failure stops the pass and leaves the rest queued.
func (l *Log) Replay(ctx context.Context, apply ApplyFunc) (ReplayResult, error) {
	l.replayMu.Lock()
	defer l.replayMu.Unlock()

	var result ReplayResult
	for _, rec := range l.Pending() {
		if err := ctx.Err(); err != nil {
			result.Remaining = l.Len()
			return result, err
		}

		err := apply(ctx, *rec.Operation)
		switch kind := domain.KindOf(err); {
		case err == nil:
			if err := l.reconcile(&rec, OutcomeApplied, ""); err != nil {
				result.Remaining = l.Len()
				return result, err
			}
			result.Applied++
		case kind == domain.KindValidation || kind == domain.KindNotFound:
			log.Printf("WARN: dropping pending write lsn=%d %s: %v", rec.LSN, rec.Operation, err)
			if err := l.reconcile(&rec, OutcomeRejected, kind.Describe()); err != nil {
				result.Remaining = l.Len()
				return result, err
			}
			result.Rejected++
		default:
			result.Remaining = l.Len()
			return result, fmt.Errorf("replay stopped at lsn %d: %w", rec.LSN, err)
		}
	}

	result.Remaining = l.Len()
	if result.Applied+result.Rejected > 0 {
		log.Printf("INFO: pending replay applied=%d rejected=%d remaining=%d", result.Applied, result.Rejected, result.Remaining)
	}
	return result, nil
}

// Compact rewrites the file with only the unreconciled records, keeping their
// LSNs.
func (l *Log) Compact() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reconciled == 0 {
		return nil
	}

	records := make([]*Record, 0, len(l.pending))
	for _, rec := range l.pending {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].LSN < records[j].LSN })

	tmp := l.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create compacted log: %w", err)
	}
	w := bufio.NewWriter(file)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		w.Write(append(data, '\n'))
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write compacted log: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync compacted log: %w", err)
	}
	file.Close()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close pending log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace pending log: %w", err)
	}
	l.file, err = os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.file = nil
		return fmt.Errorf("failed to reopen pending log: %w", err)
	}
	l.reconciled = 0
	return nil
}

// Close closes the log file and releases the lock.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.file != nil {
		err = l.file.Close()
		l.file = nil
	}
	if l.lock != nil {
		if unlockErr := l.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
		l.lock = nil
	}
	return err
}
