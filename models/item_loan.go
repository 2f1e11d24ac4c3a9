// models/item_loan.go
package models

import "time"

const (
	ItemTable        = "lsb_items"
	BorrowerTable    = "lsb_borrowers"
	LoanTable        = "lsb_loans"
	LoanHistoryTable = "lsb_loan_history"
)

type Item struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;index" json:"name"`
	Description string    `gorm:"size:1000" json:"description"`
	Category    string    `gorm:"size:120;index" json:"category"`
	Available   bool      `gorm:"not null;default:true;index" json:"available"` // 有借出记录时为 false
	QRPayload   string    `gorm:"type:text" json:"qrPayload"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ActiveLoan is an outstanding loan. Status is always LoanActive when stored;
// overdue is derived at read time by StatusResolver.
type ActiveLoan struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     string     `gorm:"type:uuid;uniqueIndex;not null" json:"itemId"` // 同一物品最多一条未归还
	BorrowerID string     `gorm:"type:uuid;index;not null" json:"borrowerId"`
	OperatorID string     `gorm:"type:uuid;index" json:"operatorId"`
	LoanDate   time.Time  `gorm:"index;not null" json:"loanDate"`
	DueDate    time.Time  `gorm:"not null" json:"dueDate"`
	Status     LoanStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	Notes      string     `gorm:"size:1000" json:"notes,omitempty"`
	TicketCode string     `gorm:"size:16;index;not null" json:"ticketCode"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// LoanHistory keeps the id of the active loan it was moved from and is never
// updated after insert.
type LoanHistory struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID      string     `gorm:"type:uuid;index;not null" json:"itemId"`
	BorrowerID  string     `gorm:"type:uuid;index;not null" json:"borrowerId"`
	OperatorID  string     `gorm:"type:uuid" json:"operatorId"`
	LoanDate    time.Time  `gorm:"index;not null" json:"loanDate"`
	DueDate     time.Time  `gorm:"not null" json:"dueDate"`
	Status      LoanStatus `gorm:"size:20;not null;default:'returned'" json:"status"`
	Notes       string     `gorm:"size:1000" json:"notes,omitempty"`
	TicketCode  string     `gorm:"size:16;index;not null" json:"ticketCode"`
	ReturnDate  time.Time  `gorm:"index;not null" json:"returnDate"`
	ReturnNotes string     `gorm:"size:1000" json:"returnNotes,omitempty"`
	ReturnedBy  string     `gorm:"type:uuid" json:"returnedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Item) TableName() string        { return ItemTable }
func (ActiveLoan) TableName() string  { return LoanTable }
func (LoanHistory) TableName() string { return LoanHistoryTable }

// ToHistory builds the returned record for l.
func (l ActiveLoan) ToHistory(returnedAt time.Time, notes, returnedBy string) LoanHistory {
	return LoanHistory{
		ID:          l.ID,
		ItemID:      l.ItemID,
		BorrowerID:  l.BorrowerID,
		OperatorID:  l.OperatorID,
		LoanDate:    l.LoanDate,
		DueDate:     l.DueDate,
		Status:      LoanReturned,
		Notes:       l.Notes,
		TicketCode:  l.TicketCode,
		ReturnDate:  returnedAt,
		ReturnNotes: notes,
		ReturnedBy:  returnedBy,
		CreatedAt:   l.CreatedAt,
	}
}
