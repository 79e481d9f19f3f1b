package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-challan-service/internal/audit/dto"
	"github.com/fekuna/omnipos-challan-service/internal/database/postgres"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const auditColumns = `id, box_id, user_id, challan_id, color, quantity, action, used, note, created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, a *model.BoxAudit) error {
	query := `
        INSERT INTO box_audits (` + auditColumns + `)
        VALUES (:id, :box_id, :user_id, :challan_id, :color, :quantity, :action, :used, :note, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Executor(ctx, r.DB), query, a)
	return postgres.Classify("insert box_audit", err)
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.BoxAudit, error) {
	if len(ids) == 0 {
		return []model.BoxAudit{}, nil
	}

	query := `SELECT ` + auditColumns + ` FROM box_audits WHERE id IN (?) ORDER BY id`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}

	exec := postgres.Executor(ctx, r.DB)
	var items []model.BoxAudit
	err = sqlx.SelectContext(ctx, exec, &items, exec.Rebind(query), args...)
	return items, postgres.Classify("select box_audits", err)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.AuditFilters) ([]model.BoxAudit, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.BoxID != "" {
		conditions = append(conditions, "box_id = :box_id")
		args["box_id"] = f.BoxID
	}
	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Action != "" {
		conditions = append(conditions, "action = :action")
		args["action"] = f.Action
	}
	if f.Used != nil {
		conditions = append(conditions, "used = :used")
		args["used"] = *f.Used
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := postgres.Executor(ctx, r.DB)

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM box_audits"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, exec, &count, exec.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + auditColumns + " FROM box_audits" + whereClause + " ORDER BY created_at DESC, id"
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

	var items []model.BoxAudit
	err = sqlx.SelectContext(ctx, exec, &items, exec.Rebind(query), queryArgs...)
	return items, count, err
}

func (r *PGRepository) MarkConsumed(ctx context.Context, ids []string, challanID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
        UPDATE box_audits SET used = true, challan_id = ?
        WHERE id IN (?) AND used = false
    `, challanID, ids)
	if err != nil {
		return 0, err
	}

	exec := postgres.Executor(ctx, r.DB)
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return 0, postgres.Classify("mark box_audits consumed", err)
	}
	return res.RowsAffected()
}
