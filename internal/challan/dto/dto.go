package dto

import (
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type ChallanFilters struct {
	FinancialYear string
	TaxType       model.TaxType
	InventoryMode model.InventoryMode
	CreatedBy     string
	Cancelled     *bool
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}

type SearchInput struct {
	Query    string
	Page     int
	PageSize int
}

// ChallanEvent is published after a challan is issued or cancelled.
type ChallanEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   *model.Challan `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

const (
	EventChallanIssued    = "ChallanIssued"
	EventChallanCancelled = "ChallanCancelled"
)
