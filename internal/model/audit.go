package model

import "time"

type AuditAction string

const (
	AuditActionAdd      AuditAction = "add"
	AuditActionSubtract AuditAction = "subtract"
)

func (a AuditAction) String() string {
	return string(a)
}

func (a AuditAction) IsValid() bool {
	return a == AuditActionAdd || a == AuditActionSubtract
}

// BoxAudit is an immutable stock movement. Only the used/challan_id pair may change, once.
type BoxAudit struct {
	ID        string      `db:"id" json:"id"`
	BoxID     string      `db:"box_id" json:"box_id"`
	UserID    string      `db:"user_id" json:"user_id"`
	ChallanID *string     `db:"challan_id" json:"challan_id"`
	Color     string      `db:"color" json:"color"`
	Quantity  int         `db:"quantity" json:"quantity"`
	Action    AuditAction `db:"action" json:"action"`
	Used      bool        `db:"used" json:"used"`
	Note      string      `db:"note" json:"note"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
