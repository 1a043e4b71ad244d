package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/romusha/forumauth/modules/auth"
)

// Memory is an in-memory auth.Repository backed by a map. It is safe for
// concurrent use and intended for tests and local development.
type Memory struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]auth.Account
	byEmail  map[string]uuid.UUID
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[uuid.UUID]auth.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	account := cloneAccount(m.accounts[id])
	return &account, nil
}

func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	clone := cloneAccount(account)
	return &clone, nil
}

func (m *Memory) Create(_ context.Context, account *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, ok := m.byEmail[email]; ok {
		return auth.ErrEmailTaken
	}
	m.accounts[account.ID] = cloneAccount(*account)
	m.byEmail[email] = account.ID
	return nil
}

func (m *Memory) Update(_ context.Context, account *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; !ok {
		return auth.ErrAccountNotFound
	}
	m.accounts[account.ID] = cloneAccount(*account)
	return nil
}

func (m *Memory) List(_ context.Context) ([]auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]auth.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, cloneAccount(a))
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// cloneAccount deep-copies the slices so callers cannot mutate stored state
// through a returned record.
func cloneAccount(a auth.Account) auth.Account {
	clone := a
	clone.TrustedDevices = append([]auth.TrustedDevice(nil), a.TrustedDevices...)
	clone.Bookmarks = append([]string(nil), a.Bookmarks...)
	return clone
}
