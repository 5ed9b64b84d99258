package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	keyCurrentUser  = "currentUser"
	keyRememberUser = "rememberUser"

	defaultRole = "employee"
)

var ErrNoIdentity = errors.New("no current identity")

// Identity is the record handed to the next page after login. It has no
// signature or expiry and is trusted at face value by whoever reads it;
// treat it as untrusted, demo-only state.
type Identity struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

type IdentityStore interface {
	SaveCurrent(id Identity) error
	Current() (Identity, error)
	ClearCurrent() error
	Remember(username string) error
	Remembered() (string, error)
	Forget() error
}

// FileIdentityStore keeps client-local state as a JSON object of string
// values on disk, one key per entry.
type FileIdentityStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileIdentityStore(path string) (*FileIdentityStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("client state file path is required")
	}

	s := &FileIdentityStore{
		path:   path,
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileIdentityStore) SaveCurrent(id Identity) error {
	b, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return s.set(keyCurrentUser, string(b))
}

func (s *FileIdentityStore) Current() (Identity, error) {
	s.mu.Lock()
	raw, ok := s.values[keyCurrentUser]
	s.mu.Unlock()
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

func (s *FileIdentityStore) ClearCurrent() error {
	return s.del(keyCurrentUser)
}

func (s *FileIdentityStore) Remember(username string) error {
	return s.set(keyRememberUser, username)
}

func (s *FileIdentityStore) Remembered() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[keyRememberUser], nil
}

func (s *FileIdentityStore) Forget() error {
	return s.del(keyRememberUser)
}

func (s *FileIdentityStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cloneLocked()
	next[key] = value
	return s.commitLocked(next)
}

func (s *FileIdentityStore) del(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	next := s.cloneLocked()
	delete(next, key)
	return s.commitLocked(next)
}

func (s *FileIdentityStore) cloneLocked() map[string]string {
	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	return next
}

// commitLocked replaces the in-memory state only after next is on disk.
func (s *FileIdentityStore) commitLocked(next map[string]string) error {
	if err := s.persist(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *FileIdentityStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read client state file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.values); err != nil {
		return fmt.Errorf("decode client state file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return nil
}

func (s *FileIdentityStore) persist(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode client state file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir client state dir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write client state file: %w", err)
	}
	return nil
}

type MemoryIdentityStore struct {
	mu         sync.Mutex
	current    *Identity
	remembered string
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{}
}

func (s *MemoryIdentityStore) SaveCurrent(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &id
	return nil
}

func (s *MemoryIdentityStore) Current() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Identity{}, ErrNoIdentity
	}
	return *s.current, nil
}

func (s *MemoryIdentityStore) ClearCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

func (s *MemoryIdentityStore) Remember(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered = username
	return nil
}

func (s *MemoryIdentityStore) Remembered() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remembered, nil
}

func (s *MemoryIdentityStore) Forget() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered = ""
	return nil
}
