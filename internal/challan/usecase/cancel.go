package usecase

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/retry"
	"github.com/fekuna/omnipos-challan-service/internal/validation"
	"go.uber.org/zap"
)

// CancelChallan marks a challan cancelled once. With Restock, every unit a dispatch challan
// subtracted is added back; the new movements are consumed by the cancelled challan.
// Sequence numbers and the original consumption are never undone.
func (uc *challanUseCase) CancelChallan(ctx context.Context, input *dto.CancelChallanInput) (*model.Challan, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var cancelled *model.Challan
	err := retry.Do(ctx, uc.cfg.Retry, func(ctx context.Context) error {
		return uc.tx.RunInTx(ctx, func(ctx context.Context) error {
			c, err := uc.GetChallan(ctx, input.ChallanID)
			if err != nil {
				return err
			}
			if c.IsCancelled() {
				return apperror.ErrAlreadyCancelled
			}
			if input.Restock && c.InventoryMode != model.InventoryModeDispatch {
				return apperror.Validation("restock", "only dispatch challans removed stock")
			}

			ok, err := uc.repo.Cancel(ctx, c.ID, input.UserID, input.Reason, uc.cfg.Now().UTC())
			if err != nil {
				return err
			}
			if !ok {
				return apperror.ErrAlreadyCancelled
			}

			if input.Restock {
				if err := uc.restock(ctx, c, input.UserID); err != nil {
					return err
				}
			}

			cancelled, err = uc.GetChallan(ctx, c.ID)
			return err
		})
	})
	if err != nil {
		uc.logger.Error("failed to cancel challan", zap.String("challan_id", input.ChallanID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("challan cancelled",
		zap.String("challan_id", cancelled.ID),
		zap.String("number", cancelled.Number),
		zap.Bool("restock", input.Restock),
	)
	uc.afterCommit(cancelled, dto.EventChallanCancelled)
	return cancelled, nil
}

// restock reverses the subtract movements behind the challan's lines.
func (uc *challanUseCase) restock(ctx context.Context, c *model.Challan, userID string) error {
	var ids []string
	for _, it := range c.Items {
		if it.AuditID != nil {
			ids = append(ids, *it.AuditID)
		}
	}
	backing, err := uc.audits.Find(ctx, ids)
	if err != nil {
		return err
	}

	var ops []stockOp
	for _, a := range backing {
		if a.Action != model.AuditActionSubtract {
			continue
		}
		ops = append(ops, stockOp{boxID: a.BoxID, color: a.Color, quantity: a.Quantity})
	}
	sortStockOps(ops)

	generated := make([]string, 0, len(ops))
	for _, op := range ops {
		rec, err := uc.applyStockOp(ctx, model.InventoryModeInward, op, userID, "challan:"+c.ID+":cancel")
		if err != nil {
			return err
		}
		generated = append(generated, rec.ID)
	}
	return uc.audits.MarkConsumed(ctx, generated, c.ID)
}
