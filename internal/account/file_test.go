package account

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "accounts.txt")
}

func TestOpenFileStore_MissingFile(t *testing.T) {
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestFileStore_Create(t *testing.T) {
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)

	acct, err := s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.Name)
	assert.Equal(t, 1, s.Count())
}

func TestFileStore_CreateDuplicate(t *testing.T) {
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "alice", "pw2")
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.Equal(t, 1, s.Count(), "duplicate must not add a record")
}

func TestFileStore_NamesAreCaseSensitive(t *testing.T) {
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "Alice", "pw2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
}

func TestFileStore_Authenticate(t *testing.T) {
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background(), "alice", "pw1")
	assert.NoError(t, err)

	_, err = s.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(context.Background(), "bob", "pw1")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := tempStorePath(t)

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "bob", "pw2")
	require.NoError(t, err)

	reloaded, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, s.All(), reloaded.All())
}

func TestFileStore_PersistsOnEveryCreate(t *testing.T) {
	path := tempStorePath(t)
	s, err := OpenFileStore(path)
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice,pw1\n", string(data))
}

func TestFileStore_SaveFailureRollsBack(t *testing.T) {
	// Point the store at a path whose parent directory does not exist so the
	// rewrite fails.
	s, err := OpenFileStore(tempStorePath(t))
	require.NoError(t, err)
	s.path = filepath.Join(t.TempDir(), "missing", "accounts.txt")

	_, err = s.Create(context.Background(), "alice", "pw1")
	require.Error(t, err)
	assert.Equal(t, 0, s.Count(), "failed persist must not keep the record")

	_, err = s.Authenticate(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestOpenFileStore_MalformedLine(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("no separator here\n"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestOpenFileStore_DuplicateLinesKeepFirst(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("alice,pw1\nalice,pw2\n"), 0o600))

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	_, err = s.Authenticate(context.Background(), "alice", "pw1")
	assert.NoError(t, err)
}

// Property: any set of created accounts survives a reload from disk with the
// same (name, password) pairs in the same order.
func TestPropertyFileStoreRoundTrip(outer *testing.T) {
	rapid.Check(outer, func(t *rapid.T) {
		path := filepath.Join(outer.TempDir(), "accounts.txt")
		s, err := OpenFileStore(path)
		if err != nil {
			t.Fatalf("opening store: %v", err)
		}

		numAccounts := rapid.IntRange(0, 15).Draw(t, "num_accounts")
		for i := 0; i < numAccounts; i++ {
			password := rapid.StringMatching(`[a-zA-Z0-9]{1,12}`).Draw(t, "password")
			if _, err := s.Create(context.Background(), fmt.Sprintf("user%d", i), password); err != nil {
				t.Fatalf("creating account: %v", err)
			}
		}

		reloaded, err := OpenFileStore(path)
		if err != nil {
			t.Fatalf("reloading store: %v", err)
		}
		if len(reloaded.All()) != numAccounts {
			t.Fatalf("reload count mismatch: got %d, want %d", len(reloaded.All()), numAccounts)
		}
		for i, acct := range s.All() {
			if reloaded.All()[i] != acct {
				t.Fatalf("record %d mismatch: got %+v, want %+v", i, reloaded.All()[i], acct)
			}
		}
	})
}
