package dto

import (
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type RecordInput struct {
	BoxID    string
	UserID   string
	Color    string
	Quantity int
	Action   model.AuditAction
	Note     string
}

type AuditFilters struct {
	BoxID     string
	UserID    string
	Action    model.AuditAction
	Used      *bool
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
