package audit

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, audit *model.BoxAudit) error
	// FindByIDs skips unknown ids. forUpdate row-locks the result until the transaction ends.
	FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.BoxAudit, error)
	FindAll(ctx context.Context, filters *dto.AuditFilters) ([]model.BoxAudit, int, error)
	// MarkConsumed flips only unused rows and reports how many it flipped.
	MarkConsumed(ctx context.Context, ids []string, challanID string) (int64, error)
}
