package warehouse

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/joao-fontenele/fulfillment/internal/domain"
)

var (
	ErrNoWarehouseAvailable = errors.New("no warehouse available")
	ErrUnknownStrategy      = errors.New("unknown selection strategy")
	ErrDuplicateWarehouse   = errors.New("warehouse already exists")
)

const (
	StrategyNearest    = "nearest"
	StrategyRoundRobin = "round_robin"
	StrategyCapacity   = "capacity"
)

// Selector picks the warehouse an order is fulfilled from.
type Selector interface {
	Select(candidates []*Warehouse) (*Warehouse, error)
}

// Nearest picks the candidate closest to Origin. Ties go to the earlier
// candidate.
type Nearest struct {
	Origin domain.Location
}

func (n Nearest) Select(candidates []*Warehouse) (*Warehouse, error) {
	if len(candidates) == 0 {
		return nil, ErrNoWarehouseAvailable
	}

	best := candidates[0]
	bestDistance := domain.DistanceKm(n.Origin, best.Address.Location)
	for _, w := range candidates[1:] {
		if d := domain.DistanceKm(n.Origin, w.Address.Location); d < bestDistance {
			best, bestDistance = w, d
		}
	}
	return best, nil
}

// RoundRobin cycles through the candidate list on every call.
type RoundRobin struct {
	next atomic.Uint64
}

func (rr *RoundRobin) Select(candidates []*Warehouse) (*Warehouse, error) {
	if len(candidates) == 0 {
		return nil, ErrNoWarehouseAvailable
	}

	i := rr.next.Add(1) - 1
	return candidates[i%uint64(len(candidates))], nil
}

// ByCapacity picks the candidate holding the most stocked units. Ties go to
// the earlier candidate.
type ByCapacity struct{}

func (ByCapacity) Select(candidates []*Warehouse) (*Warehouse, error) {
	if len(candidates) == 0 {
		return nil, ErrNoWarehouseAvailable
	}

	best := candidates[0]
	bestUnits := best.inventory.TotalUnits()
	for _, w := range candidates[1:] {
		if units := w.inventory.TotalUnits(); units > bestUnits {
			best, bestUnits = w, units
		}
	}
	return best, nil
}

// ParseStrategy returns the selector registered under name. origin is used by
// the nearest strategy only; rr is shared so round-robin state survives
// across calls.
func ParseStrategy(name string, origin domain.Location, rr *RoundRobin) (Selector, error) {
	switch name {
	case "", StrategyNearest:
		return Nearest{Origin: origin}, nil
	case StrategyRoundRobin:
		if rr == nil {
			rr = &RoundRobin{}
		}
		return rr, nil
	case StrategyCapacity:
		return ByCapacity{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}
