package memory

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type CounterRepository struct {
	s *Store
}

func NewCounterRepository(s *Store) *CounterRepository {
	return &CounterRepository{s: s}
}

func (r *CounterRepository) Increment(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	defer r.s.lock(ctx)()
	key := counterKey{fy: financialYear, taxType: taxType}
	r.s.st.counters[key]++
	return r.s.st.counters[key], nil
}

func (r *CounterRepository) Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	defer r.s.lock(ctx)()
	return r.s.st.counters[counterKey{fy: financialYear, taxType: taxType}], nil
}
