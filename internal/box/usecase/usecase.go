package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/audit"
	auditdto "github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/cache"
	"github.com/fekuna/omnipos-challan-service/internal/colorkey"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
	"github.com/fekuna/omnipos-challan-service/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listCacheTTL = 30 * time.Second

type boxUseCase struct {
	repo    box.Repository
	audits  audit.UseCase
	tx      transaction.Manager
	locker  cache.Locker
	cache   cache.Store
	lockTTL time.Duration
	logger  logger.ZapLogger
}

func NewBoxUseCase(
	repo box.Repository,
	audits audit.UseCase,
	tx transaction.Manager,
	locker cache.Locker,
	store cache.Store,
	lockTTL time.Duration,
	log logger.ZapLogger,
) box.UseCase {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &boxUseCase{
		repo:    repo,
		audits:  audits,
		tx:      tx,
		locker:  locker,
		cache:   store,
		lockTTL: lockTTL,
		logger:  log,
	}
}

func (uc *boxUseCase) CreateBox(ctx context.Context, input *dto.CreateBoxInput) (*model.Box, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	unique, err := uc.repo.IsCodeUnique(ctx, code)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperror.Validation("code", "already exists")
	}

	now := time.Now().UTC()
	b := &model.Box{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Code:            code,
		Title:           strings.TrimSpace(input.Title),
		Category:        strings.TrimSpace(input.Category),
		QuantityByColor: map[string]int{},
	}
	seen := map[string]bool{}
	for _, label := range input.Colours {
		key := colorkey.Normalize(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		b.Colours = append(b.Colours, strings.TrimSpace(label))
		b.QuantityByColor[key] = 0
	}

	if err := uc.repo.Create(ctx, b); err != nil {
		uc.logger.Error("failed to create box", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	return b, nil
}

func (uc *boxUseCase) GetBox(ctx context.Context, id string) (*model.Box, error) {
	b, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.NotFound("box", id)
	}
	return b, nil
}

type boxPage struct {
	Boxes []model.Box
	Count int
}

func (uc *boxUseCase) ListBoxes(ctx context.Context, filters *dto.BoxFilters) ([]model.Box, int, error) {
	key := listCacheKey(filters)
	var cached boxPage
	if hit, err := uc.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached.Boxes, cached.Count, nil
	}

	boxes, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if err := uc.cache.SetJSON(ctx, key, boxPage{Boxes: boxes, Count: count}, listCacheTTL); err != nil {
		uc.logger.Warn("failed to cache box list", zap.Error(err))
	}
	return boxes, count, nil
}

func listCacheKey(filters *dto.BoxFilters) string {
	data, _ := json.Marshal(filters)
	return fmt.Sprintf("boxes:list:%x", md5.Sum(data))
}

func (uc *boxUseCase) invalidateListCache(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "boxes:list:*"); err != nil {
		uc.logger.Warn("failed to invalidate box list cache", zap.Error(err))
	}
}

func (uc *boxUseCase) AddColour(ctx context.Context, input *dto.ColourInput) (*model.Box, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	key := colorkey.Normalize(input.Color)
	if key == "" {
		return nil, apperror.Validation("color", "must not be empty")
	}
	if err := uc.ensureExists(ctx, input.BoxID); err != nil {
		return nil, err
	}

	if err := uc.repo.AddColour(ctx, input.BoxID, key, strings.TrimSpace(input.Color)); err != nil {
		return nil, err
	}
	go uc.invalidateListCache(context.Background())
	return uc.GetBox(ctx, input.BoxID)
}

func (uc *boxUseCase) RemoveColour(ctx context.Context, input *dto.ColourInput) (*model.Box, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	key := colorkey.Normalize(input.Color)
	if key == "" {
		return nil, apperror.Validation("color", "must not be empty")
	}

	release, err := uc.locker.Obtain(ctx, lockKey(input.BoxID, key), uc.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release(context.Background())

	b, err := uc.GetBox(ctx, input.BoxID)
	if err != nil {
		return nil, err
	}
	qty, ok := b.QuantityByColor[key]
	if !ok {
		return nil, apperror.NotFound("colour", input.Color)
	}
	if qty > 0 {
		return nil, apperror.Validation("color", fmt.Sprintf("still holds %d units", qty))
	}

	removed, err := uc.repo.RemoveColour(ctx, input.BoxID, key)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apperror.Validation("color", "stock changed while removing")
	}
	go uc.invalidateListCache(context.Background())
	return uc.GetBox(ctx, input.BoxID)
}

func (uc *boxUseCase) GetStock(ctx context.Context, boxID string) (map[string]int, error) {
	if err := uc.ensureExists(ctx, boxID); err != nil {
		return nil, err
	}
	return uc.repo.GetStock(ctx, boxID)
}

func (uc *boxUseCase) GetColorStock(ctx context.Context, boxID, color string) (int, error) {
	key := colorkey.Normalize(color)
	if key == "" {
		return 0, apperror.Validation("color", "must not be empty")
	}
	stock, err := uc.GetStock(ctx, boxID)
	if err != nil {
		return 0, err
	}
	return stock[key], nil
}

// Validate is a read-only pre-check. Subtract re-checks atomically.
func (uc *boxUseCase) Validate(ctx context.Context, boxID string, requests []dto.StockRequest) error {
	stock, err := uc.GetStock(ctx, boxID)
	if err != nil {
		return err
	}

	requested := map[string]int{}
	var order []string
	for _, r := range requests {
		key := colorkey.Normalize(r.Color)
		if key == "" || r.Quantity <= 0 {
			continue
		}
		if _, ok := requested[key]; !ok {
			order = append(order, key)
		}
		requested[key] += r.Quantity
	}

	for _, key := range order {
		if stock[key] < requested[key] {
			return &apperror.InsufficientStockError{
				BoxID:     boxID,
				Color:     key,
				Available: stock[key],
				Requested: requested[key],
			}
		}
	}
	return nil
}

func (uc *boxUseCase) Add(ctx context.Context, input *dto.MutateStockInput) (*model.BoxAudit, error) {
	return uc.mutate(ctx, input, model.AuditActionAdd)
}

func (uc *boxUseCase) Subtract(ctx context.Context, input *dto.MutateStockInput) (*model.BoxAudit, error) {
	return uc.mutate(ctx, input, model.AuditActionSubtract)
}

// ApplyMovements runs every item in one transaction, in colour order, together with the
// event id record. Any item failure rolls back the whole event.
func (uc *boxUseCase) ApplyMovements(ctx context.Context, input *dto.ApplyMovementsInput) (bool, error) {
	if err := validation.Struct(input); err != nil {
		return false, err
	}
	if !input.Action.IsValid() {
		return false, apperror.Validation("action", "must be add or subtract")
	}

	items := append([]dto.StockRequest(nil), input.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return colorkey.Normalize(items[i].Color) < colorkey.Normalize(items[j].Color)
	})

	applied := false
	err := uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		fresh, err := uc.repo.MarkEventProcessed(ctx, input.EventID)
		if err != nil || !fresh {
			return err
		}
		for _, item := range items {
			_, err := uc.mutate(ctx, &dto.MutateStockInput{
				BoxID:    input.BoxID,
				Color:    item.Color,
				Quantity: item.Quantity,
				UserID:   input.UserID,
				Note:     input.Note,
			}, input.Action)
			if err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		uc.logger.Error("stock event rolled back",
			zap.String("event_id", input.EventID),
			zap.String("box_id", input.BoxID),
			zap.Error(err),
		)
		return false, err
	}
	if !applied {
		uc.logger.Info("stock event already applied", zap.String("event_id", input.EventID))
		return false, nil
	}
	if !transaction.InTx(ctx) {
		go uc.invalidateListCache(context.Background())
	}
	return true, nil
}

// mutate changes one bucket and records the movement in the same transaction.
func (uc *boxUseCase) mutate(ctx context.Context, input *dto.MutateStockInput, action model.AuditAction) (*model.BoxAudit, error) {
	key := colorkey.Normalize(input.Color)
	if key == "" {
		return nil, apperror.Validation("color", "must not be empty")
	}
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be a positive integer")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	release, err := uc.locker.Obtain(ctx, lockKey(input.BoxID, key), uc.lockTTL)
	if err != nil {
		uc.logger.Warn("stock lock busy", zap.String("box_id", input.BoxID), zap.String("color", key), zap.Error(err))
		return nil, err
	}
	defer release(context.Background())

	var (
		rec   *model.BoxAudit
		after int
	)
	err = uc.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := uc.ensureExists(ctx, input.BoxID); err != nil {
			return err
		}

		var err error
		if action == model.AuditActionAdd {
			after, err = uc.repo.IncrementStock(ctx, input.BoxID, key, strings.TrimSpace(input.Color), input.Quantity)
		} else {
			after, err = uc.repo.DecrementStock(ctx, input.BoxID, key, input.Quantity)
		}
		if err != nil {
			return err
		}

		rec, err = uc.audits.Record(ctx, &auditdto.RecordInput{
			BoxID:    input.BoxID,
			UserID:   input.UserID,
			Color:    key,
			Quantity: input.Quantity,
			Action:   action,
			Note:     input.Note,
		})
		return err
	})
	if err != nil {
		uc.logger.Error("stock mutation failed",
			zap.String("box_id", input.BoxID),
			zap.String("color", key),
			zap.String("action", action.String()),
			zap.Int("quantity", input.Quantity),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Debug("stock mutated",
		zap.String("box_id", input.BoxID),
		zap.String("color", key),
		zap.String("action", action.String()),
		zap.Int("quantity_after", after),
	)
	if !transaction.InTx(ctx) {
		go uc.invalidateListCache(context.Background())
	}
	return rec, nil
}

func (uc *boxUseCase) ensureExists(ctx context.Context, boxID string) error {
	ok, err := uc.repo.Exists(ctx, boxID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("box", boxID)
	}
	return nil
}

func lockKey(boxID, color string) string {
	return fmt.Sprintf("lock:box:%s:%s", boxID, color)
}
