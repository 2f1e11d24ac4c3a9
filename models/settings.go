package models

import "time"

const (
	SettingsRowID              = 1
	DefaultMaxLoansPerBorrower = 3
)

// Settings is a single row. MaxLoansPerBorrower == 0 disables the limit.
type Settings struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	MaxLoansPerBorrower int       `gorm:"not null" json:"maxLoansPerBorrower"`
	UpdatedBy           string    `gorm:"size:36" json:"updatedBy,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (Settings) TableName() string { return "lsb_settings" }

func DefaultSettings() Settings {
	return Settings{ID: SettingsRowID, MaxLoansPerBorrower: DefaultMaxLoansPerBorrower}
}
