package memory

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type ChallanRepository struct {
	s *Store
}

func NewChallanRepository(s *Store) *ChallanRepository {
	return &ChallanRepository{s: s}
}

func (r *ChallanRepository) Create(ctx context.Context, c *model.Challan) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.st.challans {
		if existing.Number == c.Number {
			return apperror.Validation("number", "already exists")
		}
	}
	stored := *c
	stored.Items = append([]model.ChallanItem(nil), c.Items...)
	r.s.st.challans[c.ID] = stored
	r.s.st.challanOrder = append(r.s.st.challanOrder, c.ID)
	return nil
}

func (r *ChallanRepository) FindByID(ctx context.Context, id string) (*model.Challan, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.challans[id]
	if !ok {
		return nil, nil
	}
	c.Items = append([]model.ChallanItem(nil), c.Items...)
	return &c, nil
}

func (r *ChallanRepository) FindByNumber(ctx context.Context, number string) (*model.Challan, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.st.challans {
		if c.Number == number {
			c.Items = append([]model.ChallanItem(nil), c.Items...)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ChallanRepository) FindAll(ctx context.Context, f *dto.ChallanFilters) ([]model.Challan, int, error) {
	defer r.s.lock(ctx)()

	return r.collect(f.Page, f.PageSize, func(c *model.Challan) bool {
		if f.FinancialYear != "" && c.FinancialYear != f.FinancialYear {
			return false
		}
		if f.TaxType != "" && c.TaxType != f.TaxType {
			return false
		}
		if f.InventoryMode != "" && c.InventoryMode != f.InventoryMode {
			return false
		}
		if f.CreatedBy != "" && c.CreatedBy != f.CreatedBy {
			return false
		}
		if f.Cancelled != nil && c.IsCancelled() != *f.Cancelled {
			return false
		}
		if f.StartDate != nil && c.CreatedAt.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && c.CreatedAt.After(*f.EndDate) {
			return false
		}
		return true
	})
}

func (r *ChallanRepository) Search(ctx context.Context, in *dto.SearchInput) ([]model.Challan, int, error) {
	defer r.s.lock(ctx)()

	q := strings.ToLower(strings.TrimSpace(in.Query))
	return r.collect(in.Page, in.PageSize, func(c *model.Challan) bool {
		if q == "" {
			return true
		}
		fields := []string{c.Number, c.ClientName, c.ClientGSTIN}
		for _, it := range c.Items {
			fields = append(fields, it.Title, it.Code)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	})
}

func (r *ChallanRepository) collect(page, pageSize int, keep func(c *model.Challan) bool) ([]model.Challan, int, error) {
	var matched []model.Challan
	for i := len(r.s.st.challanOrder) - 1; i >= 0; i-- {
		c := r.s.st.challans[r.s.st.challanOrder[i]]
		if !keep(&c) {
			continue
		}
		c.Items = append([]model.ChallanItem(nil), c.Items...)
		matched = append(matched, c)
	}
	start, end := paginate(len(matched), page, pageSize)
	return matched[start:end], len(matched), nil
}

func (r *ChallanRepository) Cancel(ctx context.Context, id, userID, reason string, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.st.challans[id]
	if !ok || c.CancelledAt != nil {
		return false, nil
	}
	c.CancelledAt = &at
	c.CancelledBy = &userID
	c.CancelReason = &reason
	r.s.st.challans[id] = c
	return true, nil
}
