package memory

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/colorkey"
	"github.com/fekuna/omnipos-challan-service/internal/model"
)

type BoxRepository struct {
	s *Store
}

func NewBoxRepository(s *Store) *BoxRepository {
	return &BoxRepository{s: s}
}

func (r *BoxRepository) Create(ctx context.Context, box *model.Box) error {
	defer r.s.lock(ctx)()

	for _, b := range r.s.st.boxes {
		if b.Code == box.Code {
			return apperror.Validation("code", "already exists")
		}
	}

	stored := *box
	stored.Colours = nil
	stored.QuantityByColor = nil
	r.s.st.boxes[box.ID] = stored
	r.s.st.boxOrder = append(r.s.st.boxOrder, box.ID)

	var rows []model.BoxColour
	seen := map[string]bool{}
	for _, label := range box.Colours {
		key := colorkey.Normalize(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, model.BoxColour{
			BoxID:    box.ID,
			Color:    key,
			Label:    strings.TrimSpace(label),
			Position: len(rows),
			Quantity: box.QuantityByColor[key],
		})
	}
	r.s.st.stock[box.ID] = rows
	return nil
}

func (r *BoxRepository) FindByID(ctx context.Context, id string) (*model.Box, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.st.boxes[id]
	if !ok {
		return nil, nil
	}
	out := r.hydrate(b)
	return &out, nil
}

func (r *BoxRepository) hydrate(b model.Box) model.Box {
	b.Colours = []string{}
	b.QuantityByColor = map[string]int{}
	for _, row := range r.s.st.stock[b.ID] {
		b.Colours = append(b.Colours, row.Label)
		b.QuantityByColor[row.Color] = row.Quantity
	}
	return b
}

func (r *BoxRepository) Exists(ctx context.Context, id string) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.st.boxes[id]
	return ok, nil
}

func (r *BoxRepository) FindAll(ctx context.Context, f *dto.BoxFilters) ([]model.Box, int, error) {
	defer r.s.lock(ctx)()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []model.Box
	for i := len(r.s.st.boxOrder) - 1; i >= 0; i-- {
		b := r.s.st.boxes[r.s.st.boxOrder[i]]
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Code), search) &&
			!strings.Contains(strings.ToLower(b.Title), search) {
			continue
		}
		matched = append(matched, r.hydrate(b))
	}

	start, end := paginate(len(matched), f.Page, f.PageSize)
	return matched[start:end], len(matched), nil
}

func (r *BoxRepository) IsCodeUnique(ctx context.Context, code string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, b := range r.s.st.boxes {
		if b.Code == code {
			return false, nil
		}
	}
	return true, nil
}

func (r *BoxRepository) AddColour(ctx context.Context, boxID, color, label string) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.boxes[boxID]; !ok {
		return apperror.NotFound("box", boxID)
	}
	rows := r.s.st.stock[boxID]
	for _, row := range rows {
		if row.Color == color {
			return nil
		}
	}
	r.s.st.stock[boxID] = append(rows, model.BoxColour{
		BoxID: boxID, Color: color, Label: label, Position: len(rows),
	})
	return nil
}

func (r *BoxRepository) RemoveColour(ctx context.Context, boxID, color string) (bool, error) {
	defer r.s.lock(ctx)()

	rows := r.s.st.stock[boxID]
	for i, row := range rows {
		if row.Color != color {
			continue
		}
		if row.Quantity > 0 {
			return false, nil
		}
		kept := append(append([]model.BoxColour(nil), rows[:i]...), rows[i+1:]...)
		for j := range kept {
			kept[j].Position = j
		}
		r.s.st.stock[boxID] = kept
		return true, nil
	}
	return false, nil
}

func (r *BoxRepository) GetStock(ctx context.Context, boxID string) (map[string]int, error) {
	defer r.s.lock(ctx)()

	out := map[string]int{}
	for _, row := range r.s.st.stock[boxID] {
		out[row.Color] = row.Quantity
	}
	return out, nil
}

func (r *BoxRepository) IncrementStock(ctx context.Context, boxID, color, label string, qty int) (int, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.boxes[boxID]; !ok {
		return 0, apperror.NotFound("box", boxID)
	}
	rows := r.s.st.stock[boxID]
	for i := range rows {
		if rows[i].Color == color {
			rows[i].Quantity += qty
			return rows[i].Quantity, nil
		}
	}
	r.s.st.stock[boxID] = append(rows, model.BoxColour{
		BoxID: boxID, Color: color, Label: label, Position: len(rows), Quantity: qty,
	})
	return qty, nil
}

func (r *BoxRepository) DecrementStock(ctx context.Context, boxID, color string, qty int) (int, error) {
	defer r.s.lock(ctx)()

	rows := r.s.st.stock[boxID]
	for i := range rows {
		if rows[i].Color != color {
			continue
		}
		if rows[i].Quantity < qty {
			break
		}
		rows[i].Quantity -= qty
		return rows[i].Quantity, nil
	}

	available := 0
	for _, row := range rows {
		if row.Color == color {
			available = row.Quantity
		}
	}
	return 0, &apperror.InsufficientStockError{BoxID: boxID, Color: color, Available: available, Requested: qty}
}

func (r *BoxRepository) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	defer r.s.lock(ctx)()

	if r.s.st.events[eventID] {
		return false, nil
	}
	r.s.st.events[eventID] = true
	return true, nil
}
