package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPendingList_Empty(t *testing.T) {
	out, err := runCommand(t, "pending", "list", "--backend", "memory", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No pending writes")
}

func TestPendingCommands_WhileLogIsHeld(t *testing.T) {
	dataDir := t.TempDir()
	held, err := pending.Open(filepath.Join(dataDir, pending.FileName), pending.WithFsync(false))
	require.NoError(t, err)
	defer held.Close()
	_, err = held.Append(domain.NewWrite("contacts", "contact-3", domain.Document{"email": "kai@example.com"}), nil)
	require.NoError(t, err)

	out, err := runCommand(t, "pending", "list", "--backend", "memory", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "contact-3")

	out, err = runCommand(t, "health", "--backend", "memory", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "pending:    1")

	_, err = runCommand(t, "pending", "replay", "--backend", "memory", "--data-dir", dataDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, pending.ErrLocked)
	assert.Contains(t, err.Error(), "POST /api/pending/replay")
}

func TestHealth_MemoryBackend(t *testing.T) {
	out, err := runCommand(t, "health", "--backend", "memory", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "backend:    memory")
	assert.Contains(t, out, "state:      Connected")
	assert.Contains(t, out, "generation: 1")
}

func TestRootOptions_RejectsUnknownBackend(t *testing.T) {
	_, err := runCommand(t, "health", "--backend", "mongo", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestPrintPending(t *testing.T) {
	color.NoColor = true
	op := domain.NewWrite("contacts", "contact-9", domain.Document{"email": "ada@example.com"})

	var out bytes.Buffer
	printPending(&out, []pending.Record{{LSN: 3, Key: op.Key(), Operation: &op, Timestamp: time.Now()}})

	assert.Contains(t, out.String(), "contacts")
	assert.Contains(t, out.String(), "contact-9")
	assert.Contains(t, out.String(), "1 pending writes")
}

func TestPrintStatus(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printStatus(&out, "postgres", store.Status{State: store.Disconnected, LastError: domain.KindConnectRefused}, 2)

	assert.Contains(t, out.String(), "state:      Disconnected")
	assert.Contains(t, out.String(), "last error: ConnectRefused")
	assert.Contains(t, out.String(), "pending:    2")
}
