package model

import "github.com/fekuna/omnipos-challan-service/internal/colorkey"

// Box is a sellable product. Stock is tracked per normalized colour key.
type Box struct {
	BaseModel
	Code     string `db:"code" json:"code"`
	Title    string `db:"title" json:"title"`
	Category string `db:"category" json:"category"`

	Colours         []string       `db:"-" json:"colours"`           // display labels, in catalog order
	QuantityByColor map[string]int `db:"-" json:"quantity_by_color"` // keyed by colorkey.Normalize
}

// BoxColour is one row of the box_stock table.
type BoxColour struct {
	BoxID    string `db:"box_id" json:"box_id"`
	Color    string `db:"color" json:"color"`
	Label    string `db:"label" json:"label"`
	Position int    `db:"position" json:"position"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// TotalStock sums every colour bucket.
func (b *Box) TotalStock() int {
	total := 0
	for _, q := range b.QuantityByColor {
		total += q
	}
	return total
}

// ColourLabel returns the catalog label for a normalized key, or the key itself.
func (b *Box) ColourLabel(key string) string {
	for _, label := range b.Colours {
		if colorkey.Normalize(label) == key {
			return label
		}
	}
	return key
}
