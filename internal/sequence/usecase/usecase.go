package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/sequence"
	"go.uber.org/zap"
)

type Config struct {
	GSTPrefix    string
	NonGSTPrefix string
	// Location decides which calendar day a challan belongs to.
	Location *time.Location
}

type sequenceUseCase struct {
	repo   sequence.Repository
	cfg    Config
	logger logger.ZapLogger
}

func NewSequenceUseCase(repo sequence.Repository, cfg Config, log logger.ZapLogger) sequence.UseCase {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &sequenceUseCase{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}
}

func (uc *sequenceUseCase) Next(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	if err := checkKey(financialYear, taxType); err != nil {
		return 0, err
	}
	seq, err := uc.repo.Increment(ctx, financialYear, taxType)
	if err != nil {
		uc.logger.Error("failed to increment challan counter",
			zap.String("financial_year", financialYear),
			zap.String("tax_type", string(taxType)),
			zap.Error(err),
		)
		return 0, err
	}
	return seq, nil
}

// Current is diagnostic only. Never derive the next number from it.
func (uc *sequenceUseCase) Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	if err := checkKey(financialYear, taxType); err != nil {
		return 0, err
	}
	return uc.repo.Current(ctx, financialYear, taxType)
}

func (uc *sequenceUseCase) Issue(ctx context.Context, taxType model.TaxType, at time.Time) (*sequence.Issued, error) {
	fy := sequence.ComputeFinancialYear(at.In(uc.cfg.Location))
	seq, err := uc.Next(ctx, fy, taxType)
	if err != nil {
		return nil, err
	}
	return &sequence.Issued{
		FinancialYear: fy,
		Sequence:      seq,
		Number:        sequence.FormatDocumentNumber(uc.prefix(taxType), fy, seq),
	}, nil
}

func (uc *sequenceUseCase) prefix(taxType model.TaxType) string {
	if taxType == model.TaxTypeNonGST {
		return uc.cfg.NonGSTPrefix
	}
	return uc.cfg.GSTPrefix
}

func checkKey(financialYear string, taxType model.TaxType) error {
	if financialYear == "" {
		return apperror.Validation("financial_year", "is required")
	}
	if !taxType.IsValid() {
		return apperror.Validation("tax_type", "must be GST or NON_GST")
	}
	return nil
}
