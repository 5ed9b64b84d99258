package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIdentityStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "client.json")
	s, err := NewFileIdentityStore(path)
	require.NoError(t, err)

	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNoIdentity)

	id := Identity{Name: "Admin User", Role: "admin", Email: "admin@company.com"}
	require.NoError(t, s.SaveCurrent(id))
	require.NoError(t, s.Remember("admin@company.com"))

	s2, err := NewFileIdentityStore(path)
	require.NoError(t, err)
	got, err := s2.Current()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	remembered, err := s2.Remembered()
	require.NoError(t, err)
	assert.Equal(t, "admin@company.com", remembered)
}

func TestFileIdentityStore_OverwritesAndClears(t *testing.T) {
	s, err := NewFileIdentityStore(filepath.Join(t.TempDir(), "client.json"))
	require.NoError(t, err)

	require.NoError(t, s.SaveCurrent(Identity{Name: "a", Role: "hr", Email: "a@x.com"}))
	require.NoError(t, s.SaveCurrent(Identity{Name: "b", Role: "employee", Email: "b@x.com"}))
	got, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", got.Email)

	require.NoError(t, s.ClearCurrent())
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNoIdentity)

	require.NoError(t, s.Remember("b@x.com"))
	require.NoError(t, s.Forget())
	remembered, err := s.Remembered()
	require.NoError(t, err)
	assert.Empty(t, remembered)
}

func TestFileIdentityStore_NeverWritesPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	s, err := NewFileIdentityStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveCurrent(Identity{Name: "n", Role: "admin", Email: "e@x.com"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
}

func TestFileIdentityStore_RejectsBadInput(t *testing.T) {
	_, err := NewFileIdentityStore("  ")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = NewFileIdentityStore(path)
	require.Error(t, err)
}

func TestMemoryIdentityStore(t *testing.T) {
	s := NewMemoryIdentityStore()
	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoIdentity)

	require.NoError(t, s.SaveCurrent(Identity{Email: "x@y.com"}))
	got, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "x@y.com", got.Email)
}

func TestFileIdentityStore_FailedWriteKeepsPreviousState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	s, err := NewFileIdentityStore(path)
	require.NoError(t, err)
	prev := Identity{Name: "Admin User", Role: "admin", Email: "admin@company.com"}
	require.NoError(t, s.SaveCurrent(prev))
	require.NoError(t, s.Remember("admin@company.com"))

	// A directory in place of the file makes every write fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o700))

	require.Error(t, s.SaveCurrent(Identity{Name: "HR Manager", Role: "hr", Email: "hr@company.com"}))
	require.Error(t, s.ClearCurrent())
	require.Error(t, s.Forget())

	got, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, prev, got)
	remembered, err := s.Remembered()
	require.NoError(t, err)
	assert.Equal(t, "admin@company.com", remembered)
}
