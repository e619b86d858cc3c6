package account

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileStore is an in-memory account registry backed by a flat text file,
// one "name,password" line per account. The whole file is rewritten on every
// creation; the write completes before Create returns.
type FileStore struct {
	path string

	mu      sync.RWMutex
	byName  map[string]Account
	ordered []string // insertion order, preserved across save/load
}

// OpenFileStore loads the account file at path into memory.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a ready FileStore. A missing file is not an error
// and yields an empty store; any other read error is returned.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		byName: make(map[string]Account),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("opening account file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, password, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("parsing account file %s: malformed line %q", path, line)
		}
		if _, exists := s.byName[name]; exists {
			// Keep the first record for a duplicated name.
			continue
		}
		s.byName[name] = Account{Name: name, Password: password}
		s.ordered = append(s.ordered, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading account file %s: %w", path, err)
	}

	return s, nil
}

// Create registers a new account and rewrites the backing file.
//
// Postcondition: On success the account is durably persisted. On a
// persistence error the in-memory registry is rolled back and the error is
// returned; no record is silently lost.
func (s *FileStore) Create(_ context.Context, name, password string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return Account{}, ErrAccountExists
	}

	acct := Account{Name: name, Password: password}
	s.byName[name] = acct
	s.ordered = append(s.ordered, name)

	if err := s.save(); err != nil {
		delete(s.byName, name)
		s.ordered = s.ordered[:len(s.ordered)-1]
		return Account{}, fmt.Errorf("persisting account %q: %w", name, err)
	}

	return acct, nil
}

// Authenticate verifies credentials against the in-memory registry.
func (s *FileStore) Authenticate(_ context.Context, name, password string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byName[name]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	if acct.Password != password {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

// All returns every account in insertion order.
func (s *FileStore) All() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]Account, 0, len(s.ordered))
	for _, name := range s.ordered {
		accounts = append(accounts, s.byName[name])
	}
	return accounts
}

// Count returns the number of stored accounts.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

// save rewrites the entire backing file. Callers must hold s.mu.
func (s *FileStore) save() error {
	var sb strings.Builder
	for _, name := range s.ordered {
		acct := s.byName[name]
		sb.WriteString(acct.Name)
		sb.WriteString(",")
		sb.WriteString(acct.Password)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(s.path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("writing account file %s: %w", s.path, err)
	}
	return nil
}
