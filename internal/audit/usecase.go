package audit

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type UseCase interface {
	Record(ctx context.Context, input *dto.RecordInput) (*model.BoxAudit, error)
	ListUnused(ctx context.Context, filters *dto.AuditFilters) ([]model.BoxAudit, int, error)
	ListMovements(ctx context.Context, filters *dto.AuditFilters) ([]model.BoxAudit, int, error)
	// Find loads the records without locking. Every id must exist.
	Find(ctx context.Context, ids []string) ([]model.BoxAudit, error)
	// Lock loads and row-locks the records. Every id must exist.
	Lock(ctx context.Context, ids []string) ([]model.BoxAudit, error)
	// MarkConsumed is all-or-nothing: any missing or used id fails the whole batch.
	MarkConsumed(ctx context.Context, ids []string, challanID string) error
}
