package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := kv.NewMemoryStore()
	require.NoError(t, kv.SetJSON(ctx, src, "isAnonymous", true))
	require.NoError(t, src.Set(ctx, "guardianlink-user-status", []byte("help")))

	path, err := ExecuteBackup(ctx, src, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	dst := kv.NewMemoryStore()
	n, err := Restore(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var anon bool
	ok, err := kv.GetJSON(ctx, dst, "isAnonymous", &anon)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, anon)

	raw, ok, err := dst.Get(ctx, "guardianlink-user-status")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "help", string(raw))
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Restore(ctx, kv.NewMemoryStore(), filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("corrupt file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
		_, err := Restore(ctx, kv.NewMemoryStore(), bad)
		assert.Error(t, err)
	})
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := kv.NewMemoryStore()

	empty, err := Latest(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 0; i < 3; i++ {
		_, err := ExecuteBackup(ctx, store, dir)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	require.NoError(t, Prune(dir, 1))
	left, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, files[2:], left)
}

func TestStartBackupScheduler(t *testing.T) {
	cr := scheduler.NewCron(nil, nil)
	_, err := StartBackupScheduler(cr, "not a schedule", kv.NewMemoryStore(), t.TempDir(), 0)
	assert.Error(t, err)

	id, err := StartBackupScheduler(cr, "@every 1h", kv.NewMemoryStore(), t.TempDir(), 3)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, cr.Entries(), 1)
}
