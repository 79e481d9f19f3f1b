package dto

type BoxFilters struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

type StockResponse struct {
	BoxID           string         `json:"box_id"`
	QuantityByColor map[string]int `json:"quantity_by_color"`
	Total           int            `json:"total"`
}

type ColorStockResponse struct {
	BoxID    string `json:"box_id"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}
