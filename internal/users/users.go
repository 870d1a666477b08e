package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joao-fontenele/fulfillment/internal/cart"
	"github.com/joao-fontenele/fulfillment/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// User owns exactly one cart and an append-only history of order IDs.
type User struct {
	ID      string
	Name    string
	Address domain.Address

	cart *cart.Cart

	mu       sync.Mutex
	orderIDs []string
}

func NewUser(id, name string, address domain.Address) *User {
	return &User{
		ID:      id,
		Name:    name,
		Address: address,
		cart:    cart.New(),
	}
}

func (u *User) Cart() *cart.Cart {
	return u.cart
}

func (u *User) AppendOrder(orderID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.orderIDs = append(u.orderIDs, orderID)
}

func (u *User) OrderIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	ids := make([]string, len(u.orderIDs))
	copy(ids, u.orderIDs)
	return ids
}

// Directory is the user store the order flow reads from.
type Directory interface {
	Get(ctx context.Context, id string) (*User, error)
}

type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryDirectory(users ...*User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]*User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *MemoryDirectory) Add(u *User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[u.ID] = u
}

func (d *MemoryDirectory) Get(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return u, nil
}
