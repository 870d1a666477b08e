package orders

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/fulfillment/internal/domain"
	"github.com/joao-fontenele/fulfillment/internal/inventory"
	"github.com/joao-fontenele/fulfillment/internal/warehouse"
)

// maxUnitsPerCategory bounds how many units one request may stock.
const maxUnitsPerCategory = 10000

type catalogEntry struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Units      int    `json:"units"`
}

type addWarehouseRequest struct {
	ID      string         `json:"id"`
	Address domain.Address `json:"address"`
	Catalog []catalogEntry `json:"catalog"`
}

type warehouseResponse struct {
	ID      string              `json:"id"`
	Address domain.Address      `json:"address"`
	Stock   []domain.StockLevel `json:"stock"`
}

// HandleAddWarehouse registers a new warehouse stocked with the given catalog.
func (h *Handler) HandleAddWarehouse(w http.ResponseWriter, r *http.Request) {
	var req addWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := buildInventory(req.ID, req.Catalog)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	wh := warehouse.New(req.ID, req.Address, inv)
	if err := h.service.AddWarehouse(wh); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("warehouse added", "warehouse_id", wh.ID, "categories", len(req.Catalog), "units", inv.TotalUnits())
	h.writeJSON(w, http.StatusCreated, warehouseResponse{ID: wh.ID, Address: wh.Address, Stock: h.service.Inventory(wh)})
}

func (h *Handler) HandleRemoveWarehouse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing warehouse id")
		return
	}

	if !h.service.RemoveWarehouse(id) {
		h.writeError(w, http.StatusNotFound, "warehouse not found")
		return
	}

	h.logger.Info("warehouse removed", "warehouse_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func buildInventory(warehouseID string, catalog []catalogEntry) (*inventory.Inventory, error) {
	inv := inventory.New()
	for _, entry := range catalog {
		if entry.Units < 0 || entry.Units > maxUnitsPerCategory {
			return nil, fmt.Errorf("category %s: %d units: %w", entry.CategoryID, entry.Units, ErrInvalidCatalog)
		}
		if err := inv.AddCategory(entry.CategoryID, entry.Name, entry.Price); err != nil {
			return nil, err
		}
		for i := range entry.Units {
			unit := inventory.Unit{
				ID:   fmt.Sprintf("%s-%s-%d", warehouseID, entry.CategoryID, i+1),
				Name: entry.Name,
			}
			if err := inv.AddProduct(unit, entry.CategoryID); err != nil {
				return nil, err
			}
		}
	}
	return inv, nil
}
