package credstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/session"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = nopLogger{}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := NewFileStore(path, nopLogger{})

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got) // nothing stored yet

	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	st := &session.State{
		Credential: session.Credential{Token: "tok1", IssuedAt: now, LastUsedAt: now},
		Identity:   &session.Identity{ID: 1, Email: "a@b.test", Role: session.RoleStudent, IsActive: true},
	}
	require.NoError(t, store.Save(st))

	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, st, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path, nopLogger{})
	got, err := store.Load()
	require.NoError(t, err) // corruption is absence, not an error
	assert.Nil(t, got)
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nopLogger{})

	require.NoError(t, store.Clear()) // nothing to remove

	now := time.Now().UTC()
	require.NoError(t, store.Save(&session.State{
		Credential: session.Credential{Token: "tok1", IssuedAt: now, LastUsedAt: now},
	}))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear()) // idempotent

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Now().UTC()
	st := &session.State{Credential: session.Credential{Token: "tok1", IssuedAt: now, LastUsedAt: now}}
	require.NoError(t, store.Save(st))

	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, st, got)

	require.NoError(t, store.Clear())
	got, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}
