package repository

import (
	"sync"
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
)

type memory struct {
	mu    sync.RWMutex
	state *marketplace.State
}

// NewMemory keeps the state in process, for tests and single node runs
func NewMemory() marketplace.Repo {
	return &memory{}
}

func (m *memory) Create(c ctx.Ctx, state marketplace.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		return domain.ErrConflict
	}
	state.Id = marketplace.StateId
	state.Admins = append([]domain.Address(nil), state.Admins...)
	m.state = &state
	return nil
}

func (m *memory) Get(c ctx.Ctx) (*marketplace.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, domain.ErrNotInitialized
	}
	res := *m.state
	res.Admins = append([]domain.Address(nil), m.state.Admins...)
	return &res, nil
}

func (m *memory) SetAdminFee(c ctx.Ctx, percent int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.ErrNotInitialized
	}
	m.state.AdminFee = percent
	m.state.UpdatedAt = time.Now()
	return nil
}

func (m *memory) IsAdmin(c ctx.Ctx, address domain.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return false, nil
	}
	return m.state.IsAdmin(address), nil
}
