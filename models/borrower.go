package models

import "time"

// Borrower is a student who can take tools out.
type Borrower struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	StudentID string    `gorm:"size:64;index" json:"studentId"`
	Career    string    `gorm:"size:120;index" json:"career"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:40" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Borrower) TableName() string { return BorrowerTable }
