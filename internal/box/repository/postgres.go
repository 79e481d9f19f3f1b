package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/colorkey"
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

func (r *PGRepository) Create(ctx context.Context, b *model.Box) error {
	exec := postgres.Executor(ctx, r.DB)

	query := `
        INSERT INTO boxes (id, code, title, category, created_at, updated_at)
        VALUES (:id, :code, :title, :category, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, exec, query, b); err != nil {
		return postgres.Classify("insert box", err)
	}

	position := 0
	seen := map[string]bool{}
	for _, label := range b.Colours {
		key := colorkey.Normalize(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		_, err := exec.ExecContext(ctx, `
            INSERT INTO box_stock (box_id, color, label, position, quantity)
            VALUES ($1, $2, $3, $4, $5)
        `, b.ID, key, strings.TrimSpace(label), position, b.QuantityByColor[key])
		if err != nil {
			return postgres.Classify("insert box_stock", err)
		}
		position++
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Box, error) {
	exec := postgres.Executor(ctx, r.DB)

	var b model.Box
	err := sqlx.GetContext(ctx, exec, &b, `SELECT id, code, title, category, created_at, updated_at FROM boxes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	boxes := []model.Box{b}
	if err := r.hydrate(ctx, exec, boxes); err != nil {
		return nil, err
	}
	return &boxes[0], nil
}

// hydrate loads colour rows for every box in one query.
func (r *PGRepository) hydrate(ctx context.Context, exec sqlx.ExtContext, boxes []model.Box) error {
	if len(boxes) == 0 {
		return nil
	}
	ids := make([]string, len(boxes))
	index := make(map[string]int, len(boxes))
	for i := range boxes {
		ids[i] = boxes[i].ID
		index[boxes[i].ID] = i
		boxes[i].Colours = []string{}
		boxes[i].QuantityByColor = map[string]int{}
	}

	query, args, err := sqlx.In(`
        SELECT box_id, color, label, position, quantity FROM box_stock
        WHERE box_id IN (?) ORDER BY box_id, position
    `, ids)
	if err != nil {
		return err
	}

	var rows []model.BoxColour
	if err := sqlx.SelectContext(ctx, exec, &rows, exec.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range rows {
		b := &boxes[index[row.BoxID]]
		b.Colours = append(b.Colours, row.Label)
		b.QuantityByColor[row.Color] = row.Quantity
	}
	return nil
}

func (r *PGRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &exists, `SELECT EXISTS(SELECT 1 FROM boxes WHERE id = $1)`, id)
	return exists, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.BoxFilters) ([]model.Box, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Search != "" {
		conditions = append(conditions, "(code ILIKE :search OR title ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}
	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM boxes"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, exec, &count, exec.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT id, code, title, category, created_at, updated_at FROM boxes" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	query, queryArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}

	var boxes []model.Box
	if err := sqlx.SelectContext(ctx, exec, &boxes, exec.Rebind(query), queryArgs...); err != nil {
		return nil, 0, err
	}
	if err := r.hydrate(ctx, exec, boxes); err != nil {
		return nil, 0, err
	}
	return boxes, count, nil
}

func (r *PGRepository) IsCodeUnique(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &exists, `SELECT EXISTS(SELECT 1 FROM boxes WHERE code = $1)`, code)
	return !exists, err
}

func (r *PGRepository) AddColour(ctx context.Context, boxID, color, label string) error {
	_, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `
        INSERT INTO box_stock (box_id, color, label, position, quantity)
        VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position) + 1, 0) FROM box_stock WHERE box_id = $1), 0)
        ON CONFLICT (box_id, color) DO NOTHING
    `, boxID, color, label)
	return postgres.Classify("add colour", err)
}

func (r *PGRepository) RemoveColour(ctx context.Context, boxID, color string) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `
        DELETE FROM box_stock WHERE box_id = $1 AND color = $2 AND quantity = 0
    `, boxID, color)
	if err != nil {
		return false, postgres.Classify("remove colour", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PGRepository) GetStock(ctx context.Context, boxID string) (map[string]int, error) {
	var rows []model.BoxColour
	err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.DB), &rows, `
        SELECT box_id, color, label, position, quantity FROM box_stock WHERE box_id = $1
    `, boxID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Color] = row.Quantity
	}
	return out, nil
}

func (r *PGRepository) IncrementStock(ctx context.Context, boxID, color, label string, qty int) (int, error) {
	var after int
	err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.DB), &after, `
        INSERT INTO box_stock (box_id, color, label, position, quantity)
        VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position) + 1, 0) FROM box_stock WHERE box_id = $1), $4)
        ON CONFLICT (box_id, color) DO UPDATE SET quantity = box_stock.quantity + EXCLUDED.quantity
        RETURNING quantity
    `, boxID, color, label, qty)
	if err != nil {
		return 0, postgres.Classify("increment stock", err)
	}
	return after, nil
}

// DecrementStock is a single conditional UPDATE so concurrent callers cannot both pass the check.
func (r *PGRepository) DecrementStock(ctx context.Context, boxID, color string, qty int) (int, error) {
	exec := postgres.Executor(ctx, r.DB)

	var after int
	err := sqlx.GetContext(ctx, exec, &after, `
        UPDATE box_stock SET quantity = quantity - $3
        WHERE box_id = $1 AND color = $2 AND quantity >= $3
        RETURNING quantity
    `, boxID, color, qty)
	if err == nil {
		return after, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		err = postgres.Classify("decrement stock", err)
		if errors.Is(err, apperror.ErrInsufficientStock) {
			// the check constraint aborted the transaction, so the balance cannot be re-read
			return 0, &apperror.InsufficientStockError{BoxID: boxID, Color: color, Requested: qty}
		}
		return 0, err
	}
	return 0, r.shortfall(ctx, exec, boxID, color, qty)
}

func (r *PGRepository) shortfall(ctx context.Context, exec sqlx.ExtContext, boxID, color string, qty int) error {
	var available int
	err := sqlx.GetContext(ctx, exec, &available, `
        SELECT COALESCE((SELECT quantity FROM box_stock WHERE box_id = $1 AND color = $2), 0)
    `, boxID, color)
	if err != nil {
		return err
	}
	return &apperror.InsufficientStockError{BoxID: boxID, Color: color, Available: available, Requested: qty}
}

func (r *PGRepository) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `
        INSERT INTO processed_events (event_id) VALUES ($1)
        ON CONFLICT (event_id) DO NOTHING
    `, eventID)
	if err != nil {
		return false, postgres.Classify("mark event processed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
