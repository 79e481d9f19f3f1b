package memory

import (
	"context"

	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type AuditRepository struct {
	s *Store
}

func NewAuditRepository(s *Store) *AuditRepository {
	return &AuditRepository{s: s}
}

func (r *AuditRepository) Create(ctx context.Context, a *model.BoxAudit) error {
	defer r.s.lock(ctx)()
	r.s.st.audits[a.ID] = *a
	r.s.st.auditOrder = append(r.s.st.auditOrder, a.ID)
	return nil
}

func (r *AuditRepository) FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.BoxAudit, error) {
	defer r.s.lock(ctx)()

	out := make([]model.BoxAudit, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if a, ok := r.s.st.audits[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AuditRepository) FindAll(ctx context.Context, f *dto.AuditFilters) ([]model.BoxAudit, int, error) {
	defer r.s.lock(ctx)()

	var matched []model.BoxAudit
	for i := len(r.s.st.auditOrder) - 1; i >= 0; i-- {
		a := r.s.st.audits[r.s.st.auditOrder[i]]
		if f.BoxID != "" && a.BoxID != f.BoxID {
			continue
		}
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.Action != "" && a.Action != f.Action {
			continue
		}
		if f.Used != nil && a.Used != *f.Used {
			continue
		}
		if f.StartDate != nil && a.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && a.CreatedAt.After(*f.EndDate) {
			continue
		}
		matched = append(matched, a)
	}

	start, end := paginate(len(matched), f.Page, f.PageSize)
	return matched[start:end], len(matched), nil
}

func (r *AuditRepository) MarkConsumed(ctx context.Context, ids []string, challanID string) (int64, error) {
	defer r.s.lock(ctx)()

	var affected int64
	for _, id := range ids {
		a, ok := r.s.st.audits[id]
		if !ok || a.Used {
			continue
		}
		cid := challanID
		a.Used = true
		a.ChallanID = &cid
		r.s.st.audits[id] = a
		affected++
	}
	return affected, nil
}
