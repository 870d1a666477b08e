package main

import (
	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/users"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

// seed builds the demo catalog: one warehouse stocking two categories and a
// single user living nearby.
func seed() (*users.MemoryDirectory, []*warehouse.Warehouse, error) {
	inv := inventory.New()
	if err := inv.AddCategory("0001", "Peppsii Large Cold Drink", 100); err != nil {
		return nil, nil, err
	}
	if err := inv.AddCategory("0004", "Doovee small Soap", 50); err != nil {
		return nil, nil, err
	}

	units := []struct {
		unit     inventory.Unit
		category string
	}{
		{inventory.Unit{ID: "1", Name: "Peepsii"}, "0001"},
		{inventory.Unit{ID: "2", Name: "Peepsii"}, "0001"},
		{inventory.Unit{ID: "3", Name: "Doovee"}, "0004"},
	}
	for _, u := range units {
		if err := inv.AddProduct(u.unit, u.category); err != nil {
			return nil, nil, err
		}
	}

	w := warehouse.New("w1", domain.Address{
		City:     "city",
		State:    "state",
		PinCode:  230010,
		Location: domain.Location{Lat: 25.4358, Lon: 81.8463},
	}, inv)

	user := users.NewUser("1", "SJ", domain.Address{
		City:     "city",
		State:    "state",
		PinCode:  230011,
		Location: domain.Location{Lat: 25.4484, Lon: 81.8322},
	})

	return users.NewMemoryDirectory(user), []*warehouse.Warehouse{w}, nil
}
