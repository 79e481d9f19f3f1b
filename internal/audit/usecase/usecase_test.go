package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/audit"
	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/database/memory"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase() (audit.UseCase, *memory.AuditRepository) {
	store := memory.NewStore()
	repo := memory.NewAuditRepository(store)
	return NewAuditUseCase(repo, store, logger.NewNop()), repo
}

func record(t *testing.T, uc audit.UseCase, color string, qty int) *model.BoxAudit {
	t.Helper()
	a, err := uc.Record(context.Background(), &dto.RecordInput{
		BoxID: "b1", UserID: "u1", Color: color, Quantity: qty, Action: model.AuditActionSubtract,
	})
	require.NoError(t, err)
	return a
}

func TestRecordNormalizesAndStartsUnused(t *testing.T) {
	uc, _ := newUseCase()
	a := record(t, uc, "  Blue ", 3)

	assert.Equal(t, "blue", a.Color)
	assert.False(t, a.Used)
	assert.Nil(t, a.ChallanID)
	assert.NotEmpty(t, a.ID)
}

func TestRecordRejectsBadInput(t *testing.T) {
	uc, _ := newUseCase()
	tests := []struct {
		name  string
		input dto.RecordInput
	}{
		{"empty colour", dto.RecordInput{BoxID: "b1", UserID: "u1", Color: "   ", Quantity: 1, Action: model.AuditActionAdd}},
		{"zero quantity", dto.RecordInput{BoxID: "b1", UserID: "u1", Color: "red", Quantity: 0, Action: model.AuditActionAdd}},
		{"no user", dto.RecordInput{BoxID: "b1", Color: "red", Quantity: 1, Action: model.AuditActionAdd}},
		{"no action", dto.RecordInput{BoxID: "b1", UserID: "u1", Color: "red", Quantity: 1}},
		{"unknown action", dto.RecordInput{BoxID: "b1", UserID: "u1", Color: "red", Quantity: 1, Action: "transfer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Record(context.Background(), &tt.input)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestMarkConsumedIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase()
	a1 := record(t, uc, "blue", 1)
	a2 := record(t, uc, "blue", 2)
	a3 := record(t, uc, "red", 3)

	require.NoError(t, uc.MarkConsumed(ctx, []string{a1.ID}, "c1"))

	err := uc.MarkConsumed(ctx, []string{a2.ID, a1.ID, a3.ID}, "c2")
	var consumed *apperror.AlreadyConsumedError
	require.ErrorAs(t, err, &consumed)
	assert.Equal(t, []string{a1.ID}, consumed.IDs)

	found, err := repo.FindByIDs(ctx, []string{a2.ID, a3.ID}, false)
	require.NoError(t, err)
	for _, a := range found {
		assert.False(t, a.Used, "audit %s must stay unused", a.ID)
	}

	unused, total, err := uc.ListUnused(ctx, &dto.AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, unused, 2)
}

func TestMarkConsumedUnknownID(t *testing.T) {
	uc, _ := newUseCase()
	a1 := record(t, uc, "blue", 1)

	err := uc.MarkConsumed(context.Background(), []string{a1.ID, "missing"}, "c1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, total, err := uc.ListUnused(context.Background(), &dto.AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestLockRequiresEveryID(t *testing.T) {
	uc, _ := newUseCase()
	a1 := record(t, uc, "blue", 1)

	found, err := uc.Lock(context.Background(), []string{a1.ID, a1.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = uc.Lock(context.Background(), []string{a1.ID, "nope"})
	var nf *apperror.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestListMovementsFilters(t *testing.T) {
	uc, _ := newUseCase()
	record(t, uc, "blue", 1)
	record(t, uc, "red", 2)

	items, total, err := uc.ListMovements(context.Background(), &dto.AuditFilters{Action: model.AuditActionAdd})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	items, total, err = uc.ListMovements(context.Background(), &dto.AuditFilters{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "red", items[0].Color)
}
