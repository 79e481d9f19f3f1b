package sequence

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/model"
)

// Repository is an atomic counter per (financial year, tax type).
type Repository interface {
	// Increment creates the key at 0 when absent and returns the incremented value.
	Increment(ctx context.Context, financialYear string, taxType model.TaxType) (int, error)
	Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error)
}
