package box

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type Repository interface {
	// Catalog
	Create(ctx context.Context, box *model.Box) error
	FindByID(ctx context.Context, id string) (*model.Box, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindAll(ctx context.Context, filters *dto.BoxFilters) ([]model.Box, int, error)
	IsCodeUnique(ctx context.Context, code string) (bool, error)

	// Colour buckets
	AddColour(ctx context.Context, boxID, color, label string) error
	RemoveColour(ctx context.Context, boxID, color string) (bool, error)
	GetStock(ctx context.Context, boxID string) (map[string]int, error)

	// IncrementStock creates the bucket when absent and returns the new quantity.
	IncrementStock(ctx context.Context, boxID, color, label string, qty int) (int, error)
	// DecrementStock fails with *apperror.InsufficientStockError instead of going negative.
	DecrementStock(ctx context.Context, boxID, color string, qty int) (int, error)

	// MarkEventProcessed records an external event id. false means it was recorded before.
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
}
