package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/challan/dto"
	"github.com/fekuna/omnipos-challan-service/internal/database/postgres"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const challanColumns = `
    id, number, sequence, financial_year, tax_type, inventory_mode,
    client_name, client_address, client_gstin, client_phone,
    items_subtotal, assembly_total, packaging_charges_overall, pre_discount_subtotal,
    discount_pct, discount_amount, taxable_subtotal, gst_rate, gst_amount,
    total_before_round, grand_total, round_off,
    created_by, created_at, cancelled_at, cancelled_by, cancel_reason`

const itemColumns = `
    id, challan_id, position, audit_id, manual, box_id, title, code, category,
    colours, quantity, rate, assembly_charge, packaging_charge`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Challan) error {
	exec := postgres.Executor(ctx, r.DB)

	query := `
        INSERT INTO challans (` + challanColumns + `)
        VALUES (
            :id, :number, :sequence, :financial_year, :tax_type, :inventory_mode,
            :client_name, :client_address, :client_gstin, :client_phone,
            :items_subtotal, :assembly_total, :packaging_charges_overall, :pre_discount_subtotal,
            :discount_pct, :discount_amount, :taxable_subtotal, :gst_rate, :gst_amount,
            :total_before_round, :grand_total, :round_off,
            :created_by, :created_at, :cancelled_at, :cancelled_by, :cancel_reason
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, exec, query, c); err != nil {
		return postgres.Classify("insert challan", err)
	}

	itemQuery := `
        INSERT INTO challan_items (` + itemColumns + `)
        VALUES (
            :id, :challan_id, :position, :audit_id, :manual, :box_id, :title, :code, :category,
            :colours, :quantity, :rate, :assembly_charge, :packaging_charge
        )
    `
	for i := range c.Items {
		if _, err := sqlx.NamedExecContext(ctx, exec, itemQuery, &c.Items[i]); err != nil {
			return postgres.Classify("insert challan item", err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Challan, error) {
	return r.findOne(ctx, `SELECT `+challanColumns+` FROM challans WHERE id = $1`, id)
}

func (r *PGRepository) FindByNumber(ctx context.Context, number string) (*model.Challan, error) {
	return r.findOne(ctx, `SELECT `+challanColumns+` FROM challans WHERE number = $1`, number)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Challan, error) {
	exec := postgres.Executor(ctx, r.DB)

	var c model.Challan
	if err := sqlx.GetContext(ctx, exec, &c, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	list := []model.Challan{c}
	if err := r.loadItems(ctx, exec, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *PGRepository) loadItems(ctx context.Context, exec sqlx.ExtContext, challans []model.Challan) error {
	if len(challans) == 0 {
		return nil
	}
	ids := make([]string, len(challans))
	index := make(map[string]int, len(challans))
	for i := range challans {
		ids[i] = challans[i].ID
		index[challans[i].ID] = i
		challans[i].Items = []model.ChallanItem{}
	}

	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM challan_items WHERE challan_id IN (?) ORDER BY challan_id, position`, ids)
	if err != nil {
		return err
	}
	var items []model.ChallanItem
	if err := sqlx.SelectContext(ctx, exec, &items, exec.Rebind(query), args...); err != nil {
		return err
	}
	for _, it := range items {
		c := &challans[index[it.ChallanID]]
		c.Items = append(c.Items, it)
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ChallanFilters) ([]model.Challan, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.FinancialYear != "" {
		conditions = append(conditions, "financial_year = :financial_year")
		args["financial_year"] = f.FinancialYear
	}
	if f.TaxType != "" {
		conditions = append(conditions, "tax_type = :tax_type")
		args["tax_type"] = f.TaxType
	}
	if f.InventoryMode != "" {
		conditions = append(conditions, "inventory_mode = :inventory_mode")
		args["inventory_mode"] = f.InventoryMode
	}
	if f.CreatedBy != "" {
		conditions = append(conditions, "created_by = :created_by")
		args["created_by"] = f.CreatedBy
	}
	if f.Cancelled != nil {
		if *f.Cancelled {
			conditions = append(conditions, "cancelled_at IS NOT NULL")
		} else {
			conditions = append(conditions, "cancelled_at IS NULL")
		}
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	return r.list(ctx, conditions, args, f.Page, f.PageSize)
}

// Search is the fallback used when the index is unavailable.
func (r *PGRepository) Search(ctx context.Context, in *dto.SearchInput) ([]model.Challan, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}
	if q := strings.TrimSpace(in.Query); q != "" {
		conditions = append(conditions, `(number ILIKE :q OR client_name ILIKE :q OR client_gstin ILIKE :q
            OR id IN (SELECT challan_id FROM challan_items WHERE title ILIKE :q OR code ILIKE :q))`)
		args["q"] = "%" + q + "%"
	}
	return r.list(ctx, conditions, args, in.Page, in.PageSize)
}

func (r *PGRepository) list(ctx context.Context, conditions []string, args map[string]interface{}, page, pageSize int) ([]model.Challan, int, error) {
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM challans"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, exec, &count, exec.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + challanColumns + " FROM challans" + whereClause + " ORDER BY created_at DESC"
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}
	query, queryArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}

	var challans []model.Challan
	if err := sqlx.SelectContext(ctx, exec, &challans, exec.Rebind(query), queryArgs...); err != nil {
		return nil, 0, err
	}
	if err := r.loadItems(ctx, exec, challans); err != nil {
		return nil, 0, err
	}
	return challans, count, nil
}

// Cancel is a compare-and-swap on cancelled_at.
func (r *PGRepository) Cancel(ctx context.Context, id, userID, reason string, at time.Time) (bool, error) {
	res, err := postgres.Executor(ctx, r.DB).ExecContext(ctx, `
        UPDATE challans SET cancelled_at = $2, cancelled_by = $3, cancel_reason = $4
        WHERE id = $1 AND cancelled_at IS NULL
    `, id, at, userID, reason)
	if err != nil {
		return false, postgres.Classify("cancel challan", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
