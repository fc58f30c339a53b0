package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager opens customer stores and runs their mutations one at a time per customer.
type Manager struct {
	opts Options

	mu    sync.Mutex
	locks map[uuid.UUID]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:  opts,
		locks: make(map[uuid.UUID]*customerLock),
	}
}

// Do loads the cart of customerID and runs fn with exclusive access to it.
func (m *Manager) Do(ctx context.Context, customerID uuid.UUID, fn func(*Store) error) error {
	lock := m.acquire(customerID)
	defer m.release(customerID, lock)

	store, err := Open(ctx, customerID, m.opts)
	if err != nil {
		return err
	}

	return fn(store)
}

// View loads the cart of customerID without taking the customer lock.
func (m *Manager) View(ctx context.Context, customerID uuid.UUID) (*Store, error) {
	return Open(ctx, customerID, m.opts)
}

func (m *Manager) acquire(customerID uuid.UUID) *customerLock {
	m.mu.Lock()
	lock, ok := m.locks[customerID]
	if !ok {
		lock = &customerLock{}
		m.locks[customerID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	lock.mu.Lock()

	return lock
}

func (m *Manager) release(customerID uuid.UUID, lock *customerLock) {
	lock.mu.Unlock()

	m.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, customerID)
	}
	m.mu.Unlock()
}
