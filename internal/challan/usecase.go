package challan

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type UseCase interface {
	CreateChallan(ctx context.Context, input *dto.CreateChallanInput) (*model.Challan, error)
	PreviewTotals(ctx context.Context, input *dto.CreateChallanInput) (*model.Totals, error)
	GetChallan(ctx context.Context, id string) (*model.Challan, error)
	GetChallanByNumber(ctx context.Context, number string) (*model.Challan, error)
	ListChallans(ctx context.Context, filters *dto.ChallanFilters) ([]model.Challan, int, error)
	SearchChallans(ctx context.Context, input *dto.SearchInput) ([]model.Challan, int, error)
	CancelChallan(ctx context.Context, input *dto.CancelChallanInput) (*model.Challan, error)
}
