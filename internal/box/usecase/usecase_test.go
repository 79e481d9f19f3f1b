package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/audit"
	auditdto "github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	auditUC "github.com/fekuna/omnipos-challan-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/cache"
	"github.com/fekuna/omnipos-challan-service/internal/database/memory"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memory.Store
	boxes  box.UseCase
	audits audit.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNop()
	audits := auditUC.NewAuditUseCase(memory.NewAuditRepository(store), store, log)
	boxes := NewBoxUseCase(memory.NewBoxRepository(store), audits, store, cache.NoopLocker{}, cache.NoopStore{}, 0, log)
	return &fixture{store: store, boxes: boxes, audits: audits}
}

func (f *fixture) createBox(t *testing.T, colours ...string) *model.Box {
	t.Helper()
	b, err := f.boxes.CreateBox(context.Background(), &dto.CreateBoxInput{
		Code:    "bx-" + colours[0],
		Title:   "Pizza box",
		Colours: colours,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) add(t *testing.T, boxID, color string, qty int) {
	t.Helper()
	_, err := f.boxes.Add(context.Background(), &dto.MutateStockInput{BoxID: boxID, Color: color, Quantity: qty, UserID: "u1"})
	require.NoError(t, err)
}

func TestCreateBoxNormalizesCatalog(t *testing.T) {
	f := newFixture(t)
	b := f.createBox(t, "Red", " red ", "Blue")

	assert.Equal(t, "BX-RED", b.Code)
	assert.Equal(t, []string{"Red", "Blue"}, b.Colours)
	assert.Equal(t, map[string]int{"red": 0, "blue": 0}, b.QuantityByColor)

	_, err := f.boxes.CreateBox(context.Background(), &dto.CreateBoxInput{Code: "BX-RED", Title: "dup"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestColorNormalizationEquivalence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "Red")
	f.add(t, b.ID, "Red", 5)

	_, err := f.boxes.Subtract(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "Red", Quantity: 3, UserID: "u1"})
	require.NoError(t, err)

	spaced, err := f.boxes.GetColorStock(ctx, b.ID, " red ")
	require.NoError(t, err)
	upper, err := f.boxes.GetColorStock(ctx, b.ID, "RED")
	require.NoError(t, err)
	assert.Equal(t, 2, spaced)
	assert.Equal(t, spaced, upper)
}

func TestDispatchExceedingStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")
	f.add(t, b.ID, "blue", 5)

	err := f.boxes.Validate(ctx, b.ID, []dto.StockRequest{{Color: "blue", Quantity: 8}})
	var ins *apperror.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, "blue", ins.Color)
	assert.Equal(t, 5, ins.Available)
	assert.Equal(t, 8, ins.Requested)

	_, err = f.boxes.Subtract(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "blue", Quantity: 8, UserID: "u1"})
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 5, ins.Available)

	qty, err := f.boxes.GetColorStock(ctx, b.ID, "blue")
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	// the failed subtract left no movement behind
	_, total, err := f.audits.ListMovements(ctx, &auditdto.AuditFilters{BoxID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestValidateSkipsInvalidEntriesAndSumsPerColour(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")
	f.add(t, b.ID, "blue", 5)

	err := f.boxes.Validate(ctx, b.ID, []dto.StockRequest{
		{Color: "", Quantity: 100},
		{Color: "blue", Quantity: 0},
		{Color: "red", Quantity: -4},
		{Color: "Blue", Quantity: 5},
	})
	assert.NoError(t, err)

	err = f.boxes.Validate(ctx, b.ID, []dto.StockRequest{{Color: "blue", Quantity: 3}, {Color: "BLUE", Quantity: 3}})
	var ins *apperror.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 6, ins.Requested)
}

func TestMutationRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")

	tests := []struct {
		name  string
		input dto.MutateStockInput
		want  error
	}{
		{"zero quantity", dto.MutateStockInput{BoxID: b.ID, Color: "blue", Quantity: 0, UserID: "u1"}, apperror.ErrValidation},
		{"negative quantity", dto.MutateStockInput{BoxID: b.ID, Color: "blue", Quantity: -2, UserID: "u1"}, apperror.ErrValidation},
		{"blank colour", dto.MutateStockInput{BoxID: b.ID, Color: "  ", Quantity: 1, UserID: "u1"}, apperror.ErrValidation},
		{"unknown box", dto.MutateStockInput{BoxID: "missing", Color: "blue", Quantity: 1, UserID: "u1"}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.boxes.Add(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.want)
			_, err = f.boxes.Subtract(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.boxes.GetStock(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddCreatesBucketAndRecordsMovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")

	rec, err := f.boxes.Add(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: " Green ", Quantity: 4, UserID: "u1", Note: "restock"})
	require.NoError(t, err)
	assert.Equal(t, "green", rec.Color)
	assert.Equal(t, model.AuditActionAdd, rec.Action)
	assert.False(t, rec.Used)
	assert.Equal(t, "restock", rec.Note)

	stock, err := f.boxes.GetStock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"blue": 0, "green": 4}, stock)
}

func TestMutationRollsBackWithEnclosingTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")
	f.add(t, b.ID, "blue", 5)

	boom := errors.New("boom")
	err := f.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := f.boxes.Subtract(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "blue", Quantity: 2, UserID: "u1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	qty, _ := f.boxes.GetColorStock(ctx, b.ID, "blue")
	assert.Equal(t, 5, qty)
	_, total, _ := f.audits.ListMovements(ctx, &auditdto.AuditFilters{BoxID: b.ID})
	assert.Equal(t, 1, total)
}

func TestConcurrentSubtractsConserveStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")
	f.add(t, b.ID, "blue", 10)

	var (
		wg        sync.WaitGroup
		succeeded int64
		added     int64
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				if _, err := f.boxes.Add(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "Blue", Quantity: 1, UserID: "u1"}); err == nil {
					atomic.AddInt64(&added, 1)
				}
				return
			}
			_, err := f.boxes.Subtract(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "blue", Quantity: 1, UserID: "u2"})
			if err == nil {
				atomic.AddInt64(&succeeded, 1)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
		}(i)
	}
	wg.Wait()

	qty, err := f.boxes.GetColorStock(ctx, b.ID, "blue")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, qty, 0)
	assert.Equal(t, 10+int(added)-int(succeeded), qty)

	_, total, err := f.audits.ListMovements(ctx, &auditdto.AuditFilters{BoxID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1+int(added)+int(succeeded), total)
}

func TestColourLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createBox(t, "blue")

	updated, err := f.boxes.AddColour(ctx, &dto.ColourInput{BoxID: b.ID, Color: "Red"})
	require.NoError(t, err)
	assert.Equal(t, []string{"blue", "Red"}, updated.Colours)
	assert.Equal(t, 0, updated.QuantityByColor["red"])

	f.add(t, b.ID, "red", 2)
	_, err = f.boxes.RemoveColour(ctx, &dto.ColourInput{BoxID: b.ID, Color: "RED"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.boxes.Subtract(ctx, &dto.MutateStockInput{BoxID: b.ID, Color: "red", Quantity: 2, UserID: "u1"})
	require.NoError(t, err)
	updated, err = f.boxes.RemoveColour(ctx, &dto.ColourInput{BoxID: b.ID, Color: "RED"})
	require.NoError(t, err)
	assert.Equal(t, []string{"blue"}, updated.Colours)

	_, err = f.boxes.RemoveColour(ctx, &dto.ColourInput{BoxID: b.ID, Color: "red"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListBoxes(t *testing.T) {
	f := newFixture(t)
	f.createBox(t, "blue")
	f.createBox(t, "red")

	boxes, total, err := f.boxes.ListBoxes(context.Background(), &dto.BoxFilters{Search: "bx-red"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, boxes, 1)
	assert.Equal(t, "BX-RED", boxes[0].Code)
}
