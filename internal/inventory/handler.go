package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrWarehouseNotFound is returned by a Source that has no inventory for the
// requested warehouse.
var ErrWarehouseNotFound = errors.New("warehouse not found")

// Source resolves the inventory owned by a warehouse.
type Source interface {
	WarehouseInventory(warehouseID string) (*Inventory, error)
}

type Handler struct {
	source Source
	logger *slog.Logger
}

func NewHandler(source Source, logger *slog.Logger) *Handler {
	return &Handler{
		source: source,
		logger: logger,
	}
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("id")
	if warehouseID == "" {
		h.writeError(w, http.StatusBadRequest, "missing warehouse id")
		return
	}

	inv, err := h.source.WarehouseInventory(warehouseID)
	if err != nil {
		if errors.Is(err, ErrWarehouseNotFound) {
			h.writeError(w, http.StatusNotFound, "warehouse not found")
			return
		}
		h.logger.Error("failed to resolve inventory", "error", err, "warehouse_id", warehouseID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	levels := inv.Stock()
	h.logger.Info("stock listed", "warehouse_id", warehouseID, "count", len(levels))
	h.writeJSON(w, http.StatusOK, levels)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("id")
	categoryID := r.PathValue("categoryId")
	if warehouseID == "" || categoryID == "" {
		h.writeError(w, http.StatusBadRequest, "missing warehouse or category id")
		return
	}

	inv, err := h.source.WarehouseInventory(warehouseID)
	if err != nil {
		if errors.Is(err, ErrWarehouseNotFound) {
			h.writeError(w, http.StatusNotFound, "warehouse not found")
			return
		}
		h.logger.Error("failed to resolve inventory", "error", err, "warehouse_id", warehouseID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, level := range inv.Stock() {
		if level.CategoryID == categoryID {
			h.logger.Info("stock retrieved", "warehouse_id", warehouseID, "category_id", categoryID)
			h.writeJSON(w, http.StatusOK, level)
			return
		}
	}

	h.writeError(w, http.StatusNotFound, "category not found")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
