package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/audit"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/challan"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/challan/totals"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/retry"
	"github.com/fekuna/omnipos-challan-service/internal/sequence"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	Retry retry.Policy
	// GSTRate nil means totals.DefaultGSTRate.
	GSTRate *decimal.Decimal
	// Now is the issuance clock. Defaults to time.Now.
	Now func() time.Time
}

type Option func(*challanUseCase)

// WithSearchIndex indexes challans after commit and serves SearchChallans from the index.
func WithSearchIndex(index challan.SearchIndex) Option {
	return func(uc *challanUseCase) { uc.index = index }
}

// WithPublisher emits ChallanIssued and ChallanCancelled after commit.
func WithPublisher(p challan.EventPublisher) Option {
	return func(uc *challanUseCase) { uc.publisher = p }
}

type challanUseCase struct {
	repo      challan.Repository
	boxes     box.UseCase
	audits    audit.UseCase
	sequences sequence.UseCase
	tx        transaction.Manager
	index     challan.SearchIndex
	publisher challan.EventPublisher
	cfg       Config
	logger    logger.ZapLogger
}

func NewChallanUseCase(
	repo challan.Repository,
	boxes box.UseCase,
	audits audit.UseCase,
	sequences sequence.UseCase,
	tx transaction.Manager,
	cfg Config,
	log logger.ZapLogger,
	opts ...Option,
) challan.UseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	uc := &challanUseCase{
		repo:      repo,
		boxes:     boxes,
		audits:    audits,
		sequences: sequences,
		tx:        tx,
		cfg:       cfg,
		logger:    log,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *challanUseCase) CreateChallan(ctx context.Context, input *dto.CreateChallanInput) (*model.Challan, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *model.Challan
	err := retry.Do(ctx, uc.cfg.Retry, func(ctx context.Context) error {
		return uc.tx.RunInTx(ctx, func(ctx context.Context) error {
			c, err := uc.issue(ctx, input)
			if err != nil {
				return err
			}
			created = c
			return nil
		})
	})
	if err != nil {
		uc.logger.Error("failed to create challan",
			zap.String("user_id", input.UserID),
			zap.String("tax_type", string(input.TaxType)),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("challan issued",
		zap.String("challan_id", created.ID),
		zap.String("number", created.Number),
		zap.String("grand_total", created.GrandTotal.StringFixed(2)),
	)
	uc.afterCommit(created, dto.EventChallanIssued)
	return created, nil
}

// issue runs inside the caller's transaction. Any error rolls back stock, sequence and consumption together.
func (uc *challanUseCase) issue(ctx context.Context, input *dto.CreateChallanInput) (*model.Challan, error) {
	challanID := uuid.New().String()
	now := uc.cfg.Now().UTC()
	snapshots := newSnapshotter(uc.boxes)

	audited, err := uc.lockAudits(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]model.ChallanItem, 0, len(input.AuditLines)+len(input.ManualLines))
	consume := make([]string, 0, len(input.AuditLines)+len(input.ManualLines))

	for _, line := range input.AuditLines {
		a := audited[line.AuditID]
		b, err := snapshots.get(ctx, a.BoxID)
		if err != nil {
			return nil, err
		}
		auditID, boxID := a.ID, a.BoxID
		items = append(items, model.ChallanItem{
			AuditID:         &auditID,
			BoxID:           &boxID,
			Title:           b.Title,
			Code:            b.Code,
			Category:        b.Category,
			Colours:         model.StringList{b.ColourLabel(a.Color)},
			Quantity:        a.Quantity,
			Rate:            line.Rate,
			AssemblyCharge:  line.AssemblyCharge,
			PackagingCharge: line.PackagingCharge,
		})
		consume = append(consume, a.ID)
	}

	manual, generated, err := uc.manualItems(ctx, input, challanID, snapshots)
	if err != nil {
		return nil, err
	}
	items = append(items, manual...)
	consume = append(consume, generated...)

	issued, err := uc.sequences.Issue(ctx, input.TaxType, now)
	if err != nil {
		return nil, err
	}

	lines := make([]totals.Line, len(items))
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].ChallanID = challanID
		items[i].Position = i + 1
		lines[i] = totals.Line{Rate: items[i].Rate, AssemblyCharge: items[i].AssemblyCharge, Quantity: items[i].Quantity}
	}

	c := &model.Challan{
		ID:            challanID,
		Number:        issued.Number,
		Sequence:      issued.Sequence,
		FinancialYear: issued.FinancialYear,
		TaxType:       input.TaxType,
		InventoryMode: input.InventoryMode,
		ClientDetails: input.Client,
		Totals: totals.Compute(lines, totals.Options{
			PackagingChargesOverall: input.PackagingChargesOverall,
			DiscountPct:             input.DiscountPct,
			TaxType:                 input.TaxType,
			GSTRate:                 uc.cfg.GSTRate,
		}),
		CreatedBy: input.UserID,
		CreatedAt: now,
		Items:     items,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := uc.audits.MarkConsumed(ctx, consume, challanID); err != nil {
		return nil, err
	}
	return c, nil
}

// lockAudits row-locks the selected records and checks they are unused and in the caller's scope.
func (uc *challanUseCase) lockAudits(ctx context.Context, input *dto.CreateChallanInput) (map[string]model.BoxAudit, error) {
	ids := make([]string, len(input.AuditLines))
	for i, line := range input.AuditLines {
		ids[i] = line.AuditID
	}

	found, err := uc.audits.Lock(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.BoxAudit, len(found))
	var consumed []string
	for _, a := range found {
		if a.Used {
			consumed = append(consumed, a.ID)
			continue
		}
		if !inScope(input.UserID, input.Role, &a) {
			return nil, apperror.Validation("audit_lines", "movement "+a.ID+" belongs to another user")
		}
		byID[a.ID] = a
	}
	if len(consumed) > 0 {
		return nil, &apperror.AlreadyConsumedError{IDs: consumed}
	}
	return byID, nil
}

// manualItems snapshots manual lines and, in dispatch or inward mode, moves their stock.
// The movements it creates are returned so the same challan consumes them.
func (uc *challanUseCase) manualItems(ctx context.Context, input *dto.CreateChallanInput, challanID string, snapshots *snapshotter) ([]model.ChallanItem, []string, error) {
	items := make([]model.ChallanItem, len(input.ManualLines))
	for i, line := range input.ManualLines {
		item := model.ChallanItem{
			Manual:          true,
			Title:           line.Title,
			Code:            line.Code,
			Category:        line.Category,
			Colours:         model.StringList(append([]string{}, line.Colours...)),
			Quantity:        line.Quantity,
			Rate:            line.Rate,
			AssemblyCharge:  line.AssemblyCharge,
			PackagingCharge: line.PackagingCharge,
		}
		if line.BoxID != "" {
			b, err := snapshots.get(ctx, line.BoxID)
			if err != nil {
				return nil, nil, err
			}
			boxID := line.BoxID
			item.BoxID = &boxID
			if item.Title == "" {
				item.Title = b.Title
			}
			if item.Code == "" {
				item.Code = b.Code
			}
			if item.Category == "" {
				item.Category = b.Category
			}
		}
		items[i] = item
	}

	if input.InventoryMode == model.InventoryModeRecordOnly {
		return items, nil, nil
	}

	generated := make([]string, 0, len(items))
	for _, op := range planStockOps(input.ManualLines) {
		rec, err := uc.applyStockOp(ctx, input.InventoryMode, op, input.UserID, "challan:"+challanID)
		if err != nil {
			return nil, nil, err
		}
		auditID := rec.ID
		items[op.index].AuditID = &auditID
		generated = append(generated, rec.ID)
	}
	return items, generated, nil
}

func (uc *challanUseCase) PreviewTotals(ctx context.Context, input *dto.CreateChallanInput) (*model.Totals, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	ids := make([]string, len(input.AuditLines))
	for i, line := range input.AuditLines {
		ids[i] = line.AuditID
	}
	found, err := uc.audits.Find(ctx, ids)
	if err != nil {
		return nil, err
	}
	qty := make(map[string]int, len(found))
	for _, a := range found {
		qty[a.ID] = a.Quantity
	}

	lines := make([]totals.Line, 0, len(input.AuditLines)+len(input.ManualLines))
	for _, l := range input.AuditLines {
		lines = append(lines, totals.Line{Rate: l.Rate, AssemblyCharge: l.AssemblyCharge, Quantity: qty[l.AuditID]})
	}
	for _, l := range input.ManualLines {
		lines = append(lines, totals.Line{Rate: l.Rate, AssemblyCharge: l.AssemblyCharge, Quantity: l.Quantity})
	}

	t := totals.Compute(lines, totals.Options{
		PackagingChargesOverall: input.PackagingChargesOverall,
		DiscountPct:             input.DiscountPct,
		TaxType:                 input.TaxType,
		GSTRate:                 uc.cfg.GSTRate,
	})
	return &t, nil
}

func (uc *challanUseCase) GetChallan(ctx context.Context, id string) (*model.Challan, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("challan", id)
	}
	return c, nil
}

func (uc *challanUseCase) GetChallanByNumber(ctx context.Context, number string) (*model.Challan, error) {
	c, err := uc.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("challan", number)
	}
	return c, nil
}

func (uc *challanUseCase) ListChallans(ctx context.Context, filters *dto.ChallanFilters) ([]model.Challan, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *challanUseCase) SearchChallans(ctx context.Context, input *dto.SearchInput) ([]model.Challan, int, error) {
	if uc.index != nil && input.Query != "" {
		ids, total, err := uc.index.Search(ctx, input)
		if err == nil {
			out := make([]model.Challan, 0, len(ids))
			for _, id := range ids {
				c, err := uc.repo.FindByID(ctx, id)
				if err != nil {
					return nil, 0, err
				}
				if c != nil {
					out = append(out, *c)
				}
			}
			return out, total, nil
		}
		uc.logger.Error("challan index search failed, falling back to DB", zap.Error(err))
	}
	return uc.repo.Search(ctx, input)
}

// afterCommit publishes and indexes in the background. Failures are logged only.
func (uc *challanUseCase) afterCommit(c *model.Challan, eventType string) {
	if uc.publisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			event := dto.ChallanEvent{
				EventID:   uuid.New().String(),
				EventType: eventType,
				Payload:   c,
				Timestamp: time.Now().UTC(),
			}
			if err := uc.publisher.Publish(ctx, c.Number, event); err != nil {
				uc.logger.Error("failed to publish challan event",
					zap.String("challan_id", c.ID), zap.String("event_type", eventType), zap.Error(err))
			}
		}()
	}
	if uc.index != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := uc.index.Index(ctx, c); err != nil {
				uc.logger.Error("failed to index challan", zap.String("challan_id", c.ID), zap.Error(err))
			}
		}()
	}
}
