package repository

import (
	"context"
	"sort"
	"sync"

	"account_service/internal/model"
)

type memoryAccountRepository struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]model.Account
	byUsername map[string]int64
}

// NewMemoryAccountRepository creates an AccountRepository kept in process memory.
// Username uniqueness is enforced under the repository lock.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:       make(map[int64]model.Account),
		byUsername: make(map[string]int64),
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[account.Username]; ok {
		return ErrUsernameTaken
	}
	r.nextID++
	account.ID = r.nextID
	r.byID[account.ID] = *account
	r.byUsername[account.Username] = account.ID
	return nil
}

func (r *memoryAccountRepository) FindByUsername(_ context.Context, username string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	account := r.byID[id]
	return &account, nil
}

func (r *memoryAccountRepository) FindByID(_ context.Context, id int64) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (r *memoryAccountRepository) List(_ context.Context) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]model.Account, 0, len(r.byID))
	for _, a := range r.byID {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *memoryAccountRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byUsername, account.Username)
	return nil
}
