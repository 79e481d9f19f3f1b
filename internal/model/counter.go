package model

import "time"

// ChallanCounter holds the last issued sequence for a (financial year, tax type) key.
type ChallanCounter struct {
	FinancialYear string    `db:"financial_year" json:"financial_year"`
	TaxType       TaxType   `db:"tax_type" json:"tax_type"`
	Seq           int       `db:"seq" json:"seq"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
