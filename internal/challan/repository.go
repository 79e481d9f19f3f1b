package challan

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type Repository interface {
	// Create writes the header and every item.
	Create(ctx context.Context, c *model.Challan) error
	FindByID(ctx context.Context, id string) (*model.Challan, error)
	FindByNumber(ctx context.Context, number string) (*model.Challan, error)
	FindAll(ctx context.Context, filters *dto.ChallanFilters) ([]model.Challan, int, error)
	Search(ctx context.Context, input *dto.SearchInput) ([]model.Challan, int, error)
	// Cancel sets the cancellation fields only when they are unset. false means already cancelled.
	Cancel(ctx context.Context, id, userID, reason string, at time.Time) (bool, error)
}

// SearchIndex is the full-text index over issued challans.
type SearchIndex interface {
	Index(ctx context.Context, c *model.Challan) error
	Search(ctx context.Context, input *dto.SearchInput) ([]string, int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}
