package models

import "time"

type AuditAction string

const (
	AuditLoanIssued      AuditAction = "loan.issued"
	AuditLoanReturned    AuditAction = "loan.returned"
	AuditItemDeleted     AuditAction = "item.deleted"
	AuditBorrowerDeleted AuditAction = "borrower.deleted"
	AuditOperatorDeleted AuditAction = "operator.deleted"
)

// AuditEntry 记录谁在什么时候做了什么，与业务写入在同一事务里落库
type AuditEntry struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	Action    AuditAction `gorm:"size:40;index;not null" json:"action"`
	LoanID    *string     `gorm:"type:uuid;index" json:"loanId,omitempty"`
	ItemID    *string     `gorm:"type:uuid" json:"itemId,omitempty"`
	ActorID   string      `gorm:"type:uuid" json:"actorId"`
	ActorName string      `gorm:"size:255" json:"actorName"`
	Detail    *string     `gorm:"size:1000" json:"detail,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"createdAt"`
}

func (AuditEntry) TableName() string { return "lsb_audit_log" }
