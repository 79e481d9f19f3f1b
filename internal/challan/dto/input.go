package dto

import (
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/shopspring/decimal"
)

// AuditLineInput prices one unused movement record.
type AuditLineInput struct {
	AuditID         string          `json:"audit_id" validate:"required"`
	Rate            decimal.Decimal `json:"rate"`
	AssemblyCharge  decimal.Decimal `json:"assembly_charge"`
	PackagingCharge decimal.Decimal `json:"packaging_charge"`
}

// ManualLineInput is a line not backed by an existing movement record.
// In dispatch and inward mode BoxID and exactly one colour are required.
type ManualLineInput struct {
	BoxID           string          `json:"box_id"`
	Title           string          `json:"title" validate:"max=255"`
	Code            string          `json:"code" validate:"max=64"`
	Category        string          `json:"category" validate:"max=128"`
	Colours         []string        `json:"colours"`
	Quantity        int             `json:"quantity" validate:"gt=0"`
	Rate            decimal.Decimal `json:"rate"`
	AssemblyCharge  decimal.Decimal `json:"assembly_charge"`
	PackagingCharge decimal.Decimal `json:"packaging_charge"`
}

type CreateChallanInput struct {
	AuditLines              []AuditLineInput    `json:"audit_lines" validate:"dive"`
	ManualLines             []ManualLineInput   `json:"manual_lines" validate:"dive"`
	PackagingChargesOverall decimal.Decimal     `json:"packaging_charges_overall"`
	DiscountPct             decimal.Decimal     `json:"discount_pct"`
	TaxType                 model.TaxType       `json:"tax_type" validate:"required"`
	InventoryMode           model.InventoryMode `json:"inventory_mode" validate:"required"`
	Client                  model.ClientDetails `json:"client"`

	UserID string `json:"-" validate:"required"`
	Role   string `json:"-"`
}

type CancelChallanInput struct {
	ChallanID string `json:"-" validate:"required"`
	UserID    string `json:"-" validate:"required"`
	Role      string `json:"-"`
	Reason    string `json:"reason" validate:"required,max=500"`
	Restock   bool   `json:"restock"`
}
