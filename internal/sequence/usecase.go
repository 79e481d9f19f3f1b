package sequence

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type Issued struct {
	FinancialYear string `json:"financial_year"`
	Sequence      int    `json:"sequence"`
	Number        string `json:"number"`
}

type UseCase interface {
	Next(ctx context.Context, financialYear string, taxType model.TaxType) (int, error)
	Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error)
	// Issue derives the financial year from at and mints a formatted document number.
	Issue(ctx context.Context, taxType model.TaxType, at time.Time) (*Issued, error)
}
