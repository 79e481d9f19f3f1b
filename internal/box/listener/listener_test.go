package listener

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/audit"
	auditdto "github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	auditUC "github.com/fekuna/omnipos-challan-service/internal/audit/usecase"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	boxUC "github.com/fekuna/omnipos-challan-service/internal/box/usecase"
	"github.com/fekuna/omnipos-challan-service/internal/cache"
	"github.com/fekuna/omnipos-challan-service/internal/database/memory"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (box.UseCase, audit.UseCase, string) {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNop()
	audits := auditUC.NewAuditUseCase(memory.NewAuditRepository(store), store, log)
	uc := boxUC.NewBoxUseCase(memory.NewBoxRepository(store), audits, store, cache.NoopLocker{}, cache.NoopStore{}, 0, log)

	b, err := uc.CreateBox(context.Background(), &dto.CreateBoxInput{Code: "BX-1", Title: "Box", Colours: []string{"Blue"}})
	require.NoError(t, err)
	return uc, audits, b.ID
}

func event(t *testing.T, id, typ, boxID string, items ...StockItemPayload) []byte {
	t.Helper()
	b, err := json.Marshal(StockEvent{EventID: id, EventType: typ, Payload: StockPayload{BoxID: boxID, Reference: "ORD-9", Items: items}})
	require.NoError(t, err)
	return b
}

func blue(t *testing.T, uc box.UseCase, boxID string) int {
	t.Helper()
	qty, err := uc.GetColorStock(context.Background(), boxID, "blue")
	require.NoError(t, err)
	return qty
}

func TestProcessAppliesMovements(t *testing.T) {
	ctx := context.Background()
	uc, _, boxID := setup(t)
	l := NewStockListener(nil, uc, logger.NewNop())

	require.NoError(t, l.Process(ctx, event(t, "e1", EventStockReceived, boxID, StockItemPayload{Color: "BLUE", Quantity: 7})))
	require.NoError(t, l.Process(ctx, event(t, "e2", EventStockDispatched, boxID, StockItemPayload{Color: "blue", Quantity: 3})))

	assert.Equal(t, 4, blue(t, uc, boxID))
}

func TestProcessSkipsPermanentFailures(t *testing.T) {
	ctx := context.Background()
	uc, _, boxID := setup(t)
	l := NewStockListener(nil, uc, logger.NewNop())

	assert.NoError(t, l.Process(ctx, []byte("{not json")))
	assert.NoError(t, l.Process(ctx, event(t, "e1", "OrderCreated", boxID)))
	assert.NoError(t, l.Process(ctx, event(t, "e2", EventStockDispatched, boxID, StockItemPayload{Color: "blue", Quantity: 1})))
	assert.NoError(t, l.Process(ctx, event(t, "e3", EventStockReceived, "missing", StockItemPayload{Color: "blue", Quantity: 1})))
	assert.NoError(t, l.Process(ctx, event(t, "", EventStockReceived, boxID, StockItemPayload{Color: "blue", Quantity: 1})))

	assert.Equal(t, 0, blue(t, uc, boxID))
}

func TestProcessRejectsWholeEventWhenOneItemFails(t *testing.T) {
	ctx := context.Background()
	uc, audits, boxID := setup(t)
	l := NewStockListener(nil, uc, logger.NewNop())
	require.NoError(t, l.Process(ctx, event(t, "in-1", EventStockReceived, boxID, StockItemPayload{Color: "blue", Quantity: 5})))

	// red has no bucket, so the second item cannot be dispatched
	err := l.Process(ctx, event(t, "out-1", EventStockDispatched, boxID,
		StockItemPayload{Color: "blue", Quantity: 2},
		StockItemPayload{Color: "red", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, 5, blue(t, uc, boxID))

	_, total, err := audits.ListMovements(ctx, &auditdto.AuditFilters{BoxID: boxID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// the rejected id was rolled back too, so a corrected event with the same id applies
	require.NoError(t, l.Process(ctx, event(t, "out-1", EventStockDispatched, boxID, StockItemPayload{Color: "blue", Quantity: 2})))
	assert.Equal(t, 3, blue(t, uc, boxID))
}

func TestProcessIgnoresRedelivery(t *testing.T) {
	ctx := context.Background()
	uc, audits, boxID := setup(t)
	l := NewStockListener(nil, uc, logger.NewNop())
	require.NoError(t, l.Process(ctx, event(t, "in-1", EventStockReceived, boxID, StockItemPayload{Color: "blue", Quantity: 10})))

	msg := event(t, "out-7", EventStockDispatched, boxID,
		StockItemPayload{Color: "blue", Quantity: 2},
		StockItemPayload{Color: "Blue ", Quantity: 1},
	)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Process(ctx, msg))
	}

	assert.Equal(t, 7, blue(t, uc, boxID))
	_, total, err := audits.ListMovements(ctx, &auditdto.AuditFilters{BoxID: boxID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
