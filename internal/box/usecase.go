package box

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type UseCase interface {
	CreateBox(ctx context.Context, input *dto.CreateBoxInput) (*model.Box, error)
	GetBox(ctx context.Context, id string) (*model.Box, error)
	ListBoxes(ctx context.Context, filters *dto.BoxFilters) ([]model.Box, int, error)
	AddColour(ctx context.Context, input *dto.ColourInput) (*model.Box, error)
	RemoveColour(ctx context.Context, input *dto.ColourInput) (*model.Box, error)

	GetStock(ctx context.Context, boxID string) (map[string]int, error)
	GetColorStock(ctx context.Context, boxID, color string) (int, error)
	Validate(ctx context.Context, boxID string, requests []dto.StockRequest) error

	Add(ctx context.Context, input *dto.MutateStockInput) (*model.BoxAudit, error)
	Subtract(ctx context.Context, input *dto.MutateStockInput) (*model.BoxAudit, error)
	// ApplyMovements reports false when the event was already applied.
	ApplyMovements(ctx context.Context, input *dto.ApplyMovementsInput) (bool, error)
}
