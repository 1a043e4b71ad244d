package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/romusha/forumauth/modules/auth"
)

// JSONFile is an auth.Repository persisting the whole account collection
// as a single JSON document on disk. Writes rewrite the file through an
// atomic rename, so a crash mid-write leaves the previous snapshot intact.
// All operations hold one mutex; it is meant for small installations, not
// high concurrency.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile opens (or creates) the collection file at path.
func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("storage: empty file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	s := &JSONFile{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat storage file: %w", err)
	}
	return s, nil
}

func (s *JSONFile) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Email, email) {
			return &accounts[i], nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (s *JSONFile) FindByID(_ context.Context, id uuid.UUID) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (s *JSONFile) Create(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Email, account.Email) {
			return auth.ErrEmailTaken
		}
	}
	return s.write(append(accounts, *account))
}

func (s *JSONFile) Update(_ context.Context, account *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}
	for i := range accounts {
		if accounts[i].ID == account.ID {
			accounts[i] = *account
			return s.write(accounts)
		}
	}
	return auth.ErrAccountNotFound
}

func (s *JSONFile) List(_ context.Context) ([]auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *JSONFile) read() ([]auth.Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	var accounts []auth.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode storage file: %w", err)
	}
	return accounts, nil
}

func (s *JSONFile) write(accounts []auth.Account) error {
	if accounts == nil {
		accounts = []auth.Account{}
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
