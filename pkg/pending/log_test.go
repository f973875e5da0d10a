package pending

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	l, err := Open(path, WithFsync(false))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func contactWrite(id string) domain.Operation {
	return domain.NewWrite("contacts", id, domain.Document{"name": "Asha", "email": "asha@example.com"})
}

func TestLog_AppendIsIdempotentByKey(t *testing.T) {
	l, _ := openTestLog(t)
	attempts := []domain.Attempt{{Strategy: "primary", Kind: domain.KindConnectTimeout}}

	appended, err := l.Append(contactWrite("c1"), attempts)
	require.NoError(t, err)
	assert.True(t, appended)

	appended, err = l.Append(contactWrite("c1"), attempts)
	require.NoError(t, err)
	assert.False(t, appended)

	appended, err = l.Append(contactWrite("c2"), attempts)
	require.NoError(t, err)
	assert.True(t, appended)

	records := l.Pending()
	require.Len(t, records, 2)
	assert.Equal(t, int64(0), records[0].LSN)
	assert.Equal(t, int64(1), records[1].LSN)
	assert.Equal(t, domain.KindConnectTimeout, records[0].Attempts[0].Kind)
}

func TestLog_ReopenRebuildsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	l, err := Open(path)
	require.NoError(t, err)
	_, err = l.Append(contactWrite("c1"), nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Len())
	appended, err := reopened.Append(contactWrite("c1"), nil)
	require.NoError(t, err)
	assert.False(t, appended)

	appended, err = reopened.Append(contactWrite("c9"), nil)
	require.NoError(t, err)
	assert.True(t, appended)
	assert.Equal(t, int64(1), reopened.Pending()[1].LSN)
}

func TestLog_Replay(t *testing.T) {
	l, path := openTestLog(t)
	_, _ = l.Append(contactWrite("c1"), nil)
	_, _ = l.Append(domain.NewUpdate("orders", "gone", domain.Document{"status": "paid"}), nil)
	_, _ = l.Append(contactWrite("c3"), nil)

	var applied []string
	apply := func(ctx context.Context, op domain.Operation) error {
		if op.ID() == "gone" {
			return domain.NewError(domain.KindNotFound, "update", errors.New("no rows"))
		}
		applied = append(applied, op.ID())
		return nil
	}

	result, err := l.Replay(context.Background(), apply)
	require.NoError(t, err)
	assert.Equal(t, ReplayResult{Applied: 2, Rejected: 1, Remaining: 0}, result)
	assert.Equal(t, []string{"c1", "c3"}, applied)

	// markers survive a reopen
	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records, 6)

	require.NoError(t, l.Close())
	reopened, err := Open(path, WithFsync(false))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 0, reopened.Len())
}

func TestLog_ReplayStopsOnConnectivityFailure(t *testing.T) {
	l, _ := openTestLog(t)
	_, _ = l.Append(contactWrite("c1"), nil)
	_, _ = l.Append(contactWrite("c2"), nil)

	calls := 0
	result, err := l.Replay(context.Background(), func(ctx context.Context, op domain.Operation) error {
		calls++
		return domain.NewError(domain.KindConnectRefused, "insert", errors.New("connection refused"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, result.Remaining)
	assert.Equal(t, 2, l.Len())
}

func TestLog_ReplayedWriteCanBeQueuedAgain(t *testing.T) {
	l, _ := openTestLog(t)
	_, _ = l.Append(contactWrite("c1"), nil)
	_, err := l.Replay(context.Background(), func(context.Context, domain.Operation) error { return nil })
	require.NoError(t, err)

	appended, err := l.Append(contactWrite("c1"), nil)
	require.NoError(t, err)
	assert.True(t, appended)
}

func TestLog_Compact(t *testing.T) {
	l, path := openTestLog(t)
	_, _ = l.Append(contactWrite("c1"), nil)
	_, _ = l.Append(contactWrite("c2"), nil)
	_, err := l.Replay(context.Background(), func(ctx context.Context, op domain.Operation) error {
		if op.ID() == "c2" {
			return errors.New("connection reset")
		}
		return nil
	})
	require.Error(t, err)

	require.NoError(t, l.Compact())
	records, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c2", records[0].Operation.ID())
	assert.Equal(t, int64(1), records[0].LSN)

	// appends continue after compaction
	appended, err := l.Append(contactWrite("c3"), nil)
	require.NoError(t, err)
	assert.True(t, appended)
	assert.Equal(t, 2, l.Len())
}

func TestReadRecords_Corruption(t *testing.T) {
	l, path := openTestLog(t)
	_, _ = l.Append(contactWrite("c1"), nil)
	require.NoError(t, l.Close())

	t.Run("torn tail is skipped", func(t *testing.T) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString(`{"lsn":1,"type":"pend`)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		records, err := ReadRecords(path)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("checksum mismatch is an error", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		tampered := []byte(string(raw[:len(raw)-len(`{"lsn":1,"type":"pend`)]))
		tampered = append([]byte(`{"lsn":7,"type":"pending","key":"x","timestamp":"2026-01-01T00:00:00Z","checksum":1}`+"\n"), tampered...)
		require.NoError(t, os.WriteFile(path, tampered, 0o644))

		_, err = ReadRecords(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum")
	})
}

func TestOpen_TruncatesTornTail(t *testing.T) {
	l, path := openTestLog(t)
	_, err := l.Append(contactWrite("c1"), nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"lsn":1,"type":"pend`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path, WithFsync(false))
	require.NoError(t, err)
	appended, err := reopened.Append(contactWrite("c2"), nil)
	require.NoError(t, err)
	assert.True(t, appended)
	require.NoError(t, reopened.Close())

	records, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[1].LSN)
}

func orderStatus(status string) domain.Operation {
	return domain.NewUpdate("orders", "o1", domain.Document{"status": status})
}

func TestLog_AppendKeepsRevertedUpdates(t *testing.T) {
	tests := []struct {
		name   string
		reopen bool
	}{
		{name: "same process", reopen: false},
		{name: "after reopen", reopen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			l, err := Open(path, WithFsync(false))
			require.NoError(t, err)
			t.Cleanup(func() { l.Close() })

			for _, status := range []string{"shipped", "cancelled"} {
				appended, err := l.Append(orderStatus(status), nil)
				require.NoError(t, err)
				assert.True(t, appended)
			}
			if tt.reopen {
				require.NoError(t, l.Close())
				l, err = Open(path, WithFsync(false))
				require.NoError(t, err)
			}

			appended, err := l.Append(orderStatus("shipped"), nil)
			require.NoError(t, err)
			assert.True(t, appended, "shipped after cancelled is a new write")

			appended, err = l.Append(orderStatus("shipped"), nil)
			require.NoError(t, err)
			assert.False(t, appended, "retry of the newest write is deduplicated")

			var statuses []string
			final := ""
			_, err = l.Replay(context.Background(), func(ctx context.Context, op domain.Operation) error {
				final = op.Payload()["status"].(string)
				statuses = append(statuses, final)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"shipped", "cancelled", "shipped"}, statuses)
			assert.Equal(t, "shipped", final)
			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestLog_ReconcilingNewestRestoresOlderForDedupe(t *testing.T) {
	l, _ := openTestLog(t)
	_, _ = l.Append(orderStatus("shipped"), nil)
	_, _ = l.Append(orderStatus("cancelled"), nil)
	records := l.Pending()
	require.Len(t, records, 2)
	require.NoError(t, l.reconcile(&records[1], OutcomeRejected, "bad status"))

	// shipped is the newest queued write again
	appended, err := l.Append(orderStatus("shipped"), nil)
	require.NoError(t, err)
	assert.False(t, appended)
	assert.Equal(t, 1, l.Len())
}

func TestOpen_SecondOwnerIsLocked(t *testing.T) {
	l, path := openTestLog(t)
	_, err := l.Append(contactWrite("c1"), nil)
	require.NoError(t, err)

	_, err = Open(path, WithFsync(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)

	// inspection does not need the lock
	records, err := ReadPending(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].Operation.ID())

	require.NoError(t, l.Close())
	second, err := Open(path, WithFsync(false))
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 1, second.Len())
}
