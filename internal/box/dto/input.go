package dto

import "github.com/fekuna/omnipos-challan-service/internal/model"

type CreateBoxInput struct {
	Code     string   `json:"code" validate:"required,max=64"`
	Title    string   `json:"title" validate:"required,max=255"`
	Category string   `json:"category" validate:"max=128"`
	Colours  []string `json:"colours" validate:"dive,required"`
}

type ColourInput struct {
	BoxID string `json:"-" validate:"required"`
	Color string `json:"color" validate:"required"`
}

// MutateStockInput drives Add and Subtract. Note is copied onto the movement record.
type MutateStockInput struct {
	BoxID    string `json:"-" validate:"required"`
	Color    string `json:"color" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	UserID   string `json:"-" validate:"required"`
	Note     string `json:"note" validate:"max=500"`
}

// ApplyMovementsInput moves several colours of one box as a single unit.
// EventID identifies the source event; an id already applied is skipped.
type ApplyMovementsInput struct {
	EventID string            `validate:"required,max=128"`
	BoxID   string            `validate:"required"`
	UserID  string            `validate:"required"`
	Action  model.AuditAction `validate:"required"`
	Note    string            `validate:"max=500"`
	Items   []StockRequest    `validate:"required,min=1"`
}

type StockRequest struct {
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}
