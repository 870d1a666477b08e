package warehouse

import (
	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
)

// ErrWarehouseNotFound is shared with inventory so the stock handler can map
// it to a 404.
var ErrWarehouseNotFound = inventory.ErrWarehouseNotFound

// Warehouse fulfills orders from the single inventory it owns.
type Warehouse struct {
	ID      string
	Address domain.Address

	inventory *inventory.Inventory
}

func New(id string, address domain.Address, inv *inventory.Inventory) *Warehouse {
	if inv == nil {
		inv = inventory.New()
	}
	return &Warehouse{
		ID:        id,
		Address:   address,
		inventory: inv,
	}
}

func (w *Warehouse) Inventory() *inventory.Inventory {
	return w.inventory
}

func (w *Warehouse) RemoveItems(counts map[string]int) error {
	return w.inventory.RemoveItems(counts)
}

func (w *Warehouse) AddItems(counts map[string]int) {
	w.inventory.AddItems(counts)
}

func (w *Warehouse) Price(categoryID string) (int64, error) {
	return w.inventory.Price(categoryID)
}
