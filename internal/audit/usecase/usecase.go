package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/audit"
	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/colorkey"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type auditUseCase struct {
	repo   audit.Repository
	tx     transaction.Manager
	logger logger.ZapLogger
}

func NewAuditUseCase(repo audit.Repository, tx transaction.Manager, log logger.ZapLogger) audit.UseCase {
	return &auditUseCase{
		repo:   repo,
		tx:     tx,
		logger: log,
	}
}

func (uc *auditUseCase) Record(ctx context.Context, input *dto.RecordInput) (*model.BoxAudit, error) {
	color := colorkey.Normalize(input.Color)
	switch {
	case input.BoxID == "":
		return nil, apperror.Validation("box_id", "is required")
	case input.UserID == "":
		return nil, apperror.Validation("user_id", "is required")
	case color == "":
		return nil, apperror.Validation("color", "must not be empty")
	case input.Quantity <= 0:
		return nil, apperror.Validation("quantity", "must be positive")
	case !input.Action.IsValid():
		return nil, apperror.Validation("action", "must be add or subtract")
	}

	a := &model.BoxAudit{
		ID:        uuid.New().String(),
		BoxID:     input.BoxID,
		UserID:    input.UserID,
		Color:     color,
		Quantity:  input.Quantity,
		Action:    input.Action,
		Note:      input.Note,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, a); err != nil {
		uc.logger.Error("failed to record movement", zap.String("box_id", input.BoxID), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (uc *auditUseCase) ListUnused(ctx context.Context, filters *dto.AuditFilters) ([]model.BoxAudit, int, error) {
	f := *filters
	unused := false
	f.Used = &unused
	return uc.repo.FindAll(ctx, &f)
}

func (uc *auditUseCase) ListMovements(ctx context.Context, filters *dto.AuditFilters) ([]model.BoxAudit, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *auditUseCase) Find(ctx context.Context, ids []string) ([]model.BoxAudit, error) {
	return uc.load(ctx, ids, false)
}

func (uc *auditUseCase) Lock(ctx context.Context, ids []string) ([]model.BoxAudit, error) {
	return uc.load(ctx, ids, true)
}

func (uc *auditUseCase) load(ctx context.Context, ids []string, forUpdate bool) ([]model.BoxAudit, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := uc.repo.FindByIDs(ctx, ids, forUpdate)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return nil, apperror.NotFound("box_audit", missing[0])
	}
	return found, nil
}

func (uc *auditUseCase) MarkConsumed(ctx context.Context, ids []string, challanID string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	return uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		affected, err := uc.repo.MarkConsumed(ctx, ids, challanID)
		if err != nil {
			return err
		}
		if affected == int64(len(ids)) {
			return nil
		}

		// Returning an error rolls the partial update back.
		found, err := uc.repo.FindByIDs(ctx, ids, false)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			return apperror.NotFound("box_audit", missing[0])
		}
		var consumed []string
		for _, a := range found {
			if a.Used && (a.ChallanID == nil || *a.ChallanID != challanID) {
				consumed = append(consumed, a.ID)
			}
		}
		uc.logger.Warn("movement records already consumed",
			zap.String("challan_id", challanID), zap.Strings("audit_ids", consumed))
		return &apperror.AlreadyConsumedError{IDs: consumed}
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, found []model.BoxAudit) []string {
	present := make(map[string]bool, len(found))
	for _, a := range found {
		present[a.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
