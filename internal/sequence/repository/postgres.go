package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-challan-service/internal/database/postgres"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Increment is one upsert statement, so the read and the write cannot interleave.
// Inside a transaction the row lock is held until commit and a rollback returns the number.
func (r *PGRepository) Increment(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	var seq int
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &seq, `
        INSERT INTO challan_counters (financial_year, tax_type, seq, updated_at)
        VALUES ($1, $2, 1, now())
        ON CONFLICT (financial_year, tax_type)
        DO UPDATE SET seq = challan_counters.seq + 1, updated_at = now()
        RETURNING seq
    `, financialYear, taxType)
	if err != nil {
		return 0, postgres.Classify("increment challan counter", err)
	}
	return seq, nil
}

func (r *PGRepository) Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	var seq int
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &seq, `
        SELECT seq FROM challan_counters WHERE financial_year = $1 AND tax_type = $2
    `, financialYear, taxType)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return seq, err
}
