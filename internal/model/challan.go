package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type TaxType string

const (
	TaxTypeGST    TaxType = "GST"
	TaxTypeNonGST TaxType = "NON_GST"
)

func (t TaxType) IsValid() bool {
	return t == TaxTypeGST || t == TaxTypeNonGST
}

// InventoryMode controls whether issuing a challan mutates stock for its manual lines.
type InventoryMode string

const (
	InventoryModeDispatch   InventoryMode = "dispatch"
	InventoryModeInward     InventoryMode = "inward"
	InventoryModeRecordOnly InventoryMode = "record_only"
)

func (m InventoryMode) IsValid() bool {
	switch m {
	case InventoryModeDispatch, InventoryModeInward, InventoryModeRecordOnly:
		return true
	}
	return false
}

type ClientDetails struct {
	ClientName    string `db:"client_name" json:"client_name"`
	ClientAddress string `db:"client_address" json:"client_address"`
	ClientGSTIN   string `db:"client_gstin" json:"client_gstin"`
	ClientPhone   string `db:"client_phone" json:"client_phone"`
}

// Totals is computed once at issuance and persisted verbatim.
type Totals struct {
	ItemsSubtotal           decimal.Decimal `db:"items_subtotal" json:"items_subtotal"`
	AssemblyTotal           decimal.Decimal `db:"assembly_total" json:"assembly_total"`
	PackagingChargesOverall decimal.Decimal `db:"packaging_charges_overall" json:"packaging_charges_overall"`
	PreDiscountSubtotal     decimal.Decimal `db:"pre_discount_subtotal" json:"pre_discount_subtotal"`
	DiscountPct             decimal.Decimal `db:"discount_pct" json:"discount_pct"`
	DiscountAmount          decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TaxableSubtotal         decimal.Decimal `db:"taxable_subtotal" json:"taxable_subtotal"`
	GSTRate                 decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	GSTAmount               decimal.Decimal `db:"gst_amount" json:"gst_amount"`
	TotalBeforeRound        decimal.Decimal `db:"total_before_round" json:"total_before_round"`
	GrandTotal              decimal.Decimal `db:"grand_total" json:"grand_total"`
	RoundOff                decimal.Decimal `db:"round_off" json:"round_off"`
}

type Challan struct {
	ID            string        `db:"id" json:"id"`
	Number        string        `db:"number" json:"number"`
	Sequence      int           `db:"sequence" json:"sequence"`
	FinancialYear string        `db:"financial_year" json:"financial_year"`
	TaxType       TaxType       `db:"tax_type" json:"tax_type"`
	InventoryMode InventoryMode `db:"inventory_mode" json:"inventory_mode"`
	ClientDetails
	Totals
	CreatedBy    string     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy  *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`

	Items []ChallanItem `db:"-" json:"items"`
}

func (c *Challan) IsCancelled() bool {
	return c.CancelledAt != nil
}

// ChallanItem snapshots the box at issuance; later catalog edits never change it.
type ChallanItem struct {
	ID              string          `db:"id" json:"id"`
	ChallanID       string          `db:"challan_id" json:"challan_id"`
	Position        int             `db:"position" json:"position"`
	AuditID         *string         `db:"audit_id" json:"audit_id"`
	Manual          bool            `db:"manual" json:"manual"`
	BoxID           *string         `db:"box_id" json:"box_id"`
	Title           string          `db:"title" json:"title"`
	Code            string          `db:"code" json:"code"`
	Category        string          `db:"category" json:"category"`
	Colours         StringList      `db:"colours" json:"colours"`
	Quantity        int             `db:"quantity" json:"quantity"`
	Rate            decimal.Decimal `db:"rate" json:"rate"`
	AssemblyCharge  decimal.Decimal `db:"assembly_charge" json:"assembly_charge"`
	PackagingCharge decimal.Decimal `db:"packaging_charge" json:"packaging_charge"`
}

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported type for StringList")
	}
	return json.Unmarshal(raw, (*[]string)(l))
}
