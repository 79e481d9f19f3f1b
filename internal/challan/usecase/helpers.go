package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/auth"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	boxdto "github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/colorkey"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/validation"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Scales of the persisted NUMERIC columns. Finer inputs would be rounded on write and
// the stored lines would no longer reproduce the stored totals.
const (
	moneyPlaces    = 2
	discountPlaces = 4
)

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

func validateCreate(input *dto.CreateChallanInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if !input.TaxType.IsValid() {
		return apperror.Validation("tax_type", "must be GST or NON_GST")
	}
	if !input.InventoryMode.IsValid() {
		return apperror.Validation("inventory_mode", "must be dispatch, inward or record_only")
	}
	if len(input.AuditLines)+len(input.ManualLines) == 0 {
		return apperror.Validation("items", "at least one line is required")
	}
	if input.DiscountPct.IsNegative() || input.DiscountPct.GreaterThan(hundred) {
		return apperror.Validation("discount_pct", "must be between 0 and 100")
	}
	if !fitsScale(input.DiscountPct, discountPlaces) {
		return apperror.Validation("discount_pct", "at most 4 decimal places")
	}
	if input.PackagingChargesOverall.IsNegative() {
		return apperror.Validation("packaging_charges_overall", "must not be negative")
	}
	if !fitsScale(input.PackagingChargesOverall, moneyPlaces) {
		return apperror.Validation("packaging_charges_overall", "at most 2 decimal places")
	}

	seen := make(map[string]bool, len(input.AuditLines))
	for i, line := range input.AuditLines {
		field := fmt.Sprintf("audit_lines[%d]", i)
		if seen[line.AuditID] {
			return apperror.Validation(field+".audit_id", "is listed twice")
		}
		seen[line.AuditID] = true
		if err := checkCharges(field, line.Rate, line.AssemblyCharge, line.PackagingCharge); err != nil {
			return err
		}
	}

	movesStock := input.InventoryMode != model.InventoryModeRecordOnly
	for i, line := range input.ManualLines {
		field := fmt.Sprintf("manual_lines[%d]", i)
		if err := checkCharges(field, line.Rate, line.AssemblyCharge, line.PackagingCharge); err != nil {
			return err
		}
		if movesStock {
			if line.BoxID == "" {
				return apperror.Validation(field+".box_id", "is required when the challan moves stock")
			}
			if len(line.Colours) != 1 || !colorkey.Valid(line.Colours[0]) {
				return apperror.Validation(field+".colours", "exactly one colour is required when the challan moves stock")
			}
		} else if line.BoxID == "" && line.Title == "" {
			return apperror.Validation(field+".title", "is required without a box")
		}
	}
	return nil
}

func checkCharges(field string, rate, assembly, packaging decimal.Decimal) error {
	charges := []struct {
		name  string
		value decimal.Decimal
	}{
		{"rate", rate},
		{"assembly_charge", assembly},
		{"packaging_charge", packaging},
	}
	for _, c := range charges {
		if c.value.IsNegative() {
			return apperror.Validation(field+"."+c.name, "must not be negative")
		}
		if !fitsScale(c.value, moneyPlaces) {
			return apperror.Validation(field+"."+c.name, "at most 2 decimal places")
		}
	}
	return nil
}

// inScope: admins may consume any movement, everyone else only their own.
func inScope(userID, role string, a *model.BoxAudit) bool {
	return auth.IsAdmin(role) || a.UserID == userID
}

type snapshotter struct {
	boxes box.UseCase
	seen  map[string]*model.Box
}

func newSnapshotter(boxes box.UseCase) *snapshotter {
	return &snapshotter{boxes: boxes, seen: map[string]*model.Box{}}
}

func (s *snapshotter) get(ctx context.Context, id string) (*model.Box, error) {
	if b, ok := s.seen[id]; ok {
		return b, nil
	}
	b, err := s.boxes.GetBox(ctx, id)
	if err != nil {
		return nil, err
	}
	s.seen[id] = b
	return b, nil
}

type stockOp struct {
	index    int
	boxID    string
	color    string
	quantity int
}

// planStockOps orders mutations by (box, colour) so concurrent issuers take locks in the same order.
func planStockOps(lines []dto.ManualLineInput) []stockOp {
	ops := make([]stockOp, len(lines))
	for i, line := range lines {
		ops[i] = stockOp{index: i, boxID: line.BoxID, color: colorkey.Normalize(line.Colours[0]), quantity: line.Quantity}
	}
	sortStockOps(ops)
	return ops
}

func sortStockOps(ops []stockOp) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].boxID != ops[j].boxID {
			return ops[i].boxID < ops[j].boxID
		}
		return ops[i].color < ops[j].color
	})
}

func (uc *challanUseCase) applyStockOp(ctx context.Context, mode model.InventoryMode, op stockOp, userID, note string) (*model.BoxAudit, error) {
	input := &boxdto.MutateStockInput{
		BoxID:    op.boxID,
		Color:    op.color,
		Quantity: op.quantity,
		UserID:   userID,
		Note:     note,
	}
	if mode == model.InventoryModeInward {
		return uc.boxes.Add(ctx, input)
	}
	return uc.boxes.Subtract(ctx, input)
}
