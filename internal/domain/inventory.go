package domain

type StockLevel struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Available  int    `json:"available"`
}
