package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/joao-fontenele/fulfillment/internal/domain"
)

var (
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidPrice      = errors.New("price must not be negative")
)

// Unit is one physical stocked item of a category.
type Unit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Inventory is the catalog of one warehouse. All mutation goes through
// AddCategory, AddProduct, RemoveItems and AddItems, each of which holds the
// inventory lock for its whole duration.
type Inventory struct {
	mu         sync.Mutex
	categories map[string]*Category
	stock      map[string][]Unit
}

func New() *Inventory {
	return &Inventory{
		categories: make(map[string]*Category),
		stock:      make(map[string][]Unit),
	}
}

func (inv *Inventory) AddCategory(id, name string, price int64) error {
	if price < 0 {
		return fmt.Errorf("category %s: %w", id, ErrInvalidPrice)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.categories[id]; exists {
		return fmt.Errorf("category %s: %w", id, ErrDuplicateCategory)
	}

	inv.categories[id] = &Category{ID: id, Name: name, Price: price}
	inv.stock[id] = []Unit{}
	return nil
}

func (inv *Inventory) AddProduct(unit Unit, categoryID string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.categories[categoryID]; !exists {
		return fmt.Errorf("category %s: %w", categoryID, ErrUnknownCategory)
	}

	unit.CategoryID = categoryID
	inv.stock[categoryID] = append(inv.stock[categoryID], unit)
	return nil
}

// RemoveItems debits n units per category. Every entry is validated before
// any stock is touched, so a failure leaves the inventory unchanged.
func (inv *Inventory) RemoveItems(counts map[string]int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for categoryID, n := range counts {
		if _, exists := inv.categories[categoryID]; !exists {
			return fmt.Errorf("category %s: %w", categoryID, ErrUnknownCategory)
		}
		if n < 0 {
			return fmt.Errorf("category %s: %w", categoryID, ErrInvalidQuantity)
		}
		if available := len(inv.stock[categoryID]); n > available {
			return fmt.Errorf("category %s: requested %d, available %d: %w", categoryID, n, available, ErrInsufficientStock)
		}
	}

	for categoryID, n := range counts {
		units := inv.stock[categoryID]
		inv.stock[categoryID] = units[:len(units)-n]
	}

	return nil
}

// AddItems credits n placeholder units per category. It is used for restock
// and for compensating a debit, and never fails; entries for unknown
// categories or with n <= 0 are ignored.
func (inv *Inventory) AddItems(counts map[string]int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for categoryID, n := range counts {
		category, exists := inv.categories[categoryID]
		if !exists || n <= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			inv.stock[categoryID] = append(inv.stock[categoryID], Unit{
				ID:         "restock-" + uuid.New().String(),
				Name:       category.Name,
				CategoryID: categoryID,
			})
		}
	}
}

func (inv *Inventory) Price(categoryID string) (int64, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	category, exists := inv.categories[categoryID]
	if !exists {
		return 0, fmt.Errorf("category %s: %w", categoryID, ErrUnknownCategory)
	}
	return category.Price, nil
}

func (inv *Inventory) Category(categoryID string) (Category, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	category, exists := inv.categories[categoryID]
	if !exists {
		return Category{}, false
	}
	return *category, true
}

// Count returns the number of stocked units of a category, zero if unknown.
func (inv *Inventory) Count(categoryID string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return len(inv.stock[categoryID])
}

func (inv *Inventory) TotalUnits() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	total := 0
	for _, units := range inv.stock {
		total += len(units)
	}
	return total
}

// Stock returns a point-in-time view of every category, ordered by ID.
func (inv *Inventory) Stock() []domain.StockLevel {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	levels := make([]domain.StockLevel, 0, len(inv.categories))
	for id, category := range inv.categories {
		levels = append(levels, domain.StockLevel{
			CategoryID: id,
			Name:       category.Name,
			Price:      category.Price,
			Available:  len(inv.stock[id]),
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].CategoryID < levels[j].CategoryID })
	return levels
}
