package cart

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/joao-fontenele/fulfillment/internal/inventory"
)

// ErrInvalidQuantity is shared with inventory so callers can match either.
var ErrInvalidQuantity = inventory.ErrInvalidQuantity

var ErrQuantityTooLarge = errors.New("quantity too large")

// Cart maps category IDs to requested quantities.
type Cart struct {
	mu    sync.Mutex
	items map[string]int
}

func New() *Cart {
	return &Cart{items: make(map[string]int)}
}

func (c *Cart) AddItem(categoryID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("add %d of %s: %w", count, categoryID, ErrInvalidQuantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if count > math.MaxInt-c.items[categoryID] {
		return fmt.Errorf("add %d of %s to %d: %w", count, categoryID, c.items[categoryID], ErrQuantityTooLarge)
	}

	c.items[categoryID] += count
	return nil
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make(map[string]int, len(c.items))
	for id, n := range c.items {
		items[id] = n
	}
	return items
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

func (c *Cart) Empty() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.items)
}
