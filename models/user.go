package models

import (
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// FallbackSuperAdminID is the account ensured at start-up. Nobody may edit
// or delete it, not even itself.
const FallbackSuperAdminID = "00000000-0000-0000-0000-000000000001"

// Operator 使用 UUID 字节作为 WebAuthn userHandle
type Operator struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Role         Role   `gorm:"size:20;not null;default:'admin';index" json:"role"`
	PasswordHash string `gorm:"size:100" json:"-"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Credentials []Credential `json:"-"`
}

func (Operator) TableName() string {
	return "lsb_operators"
}

func (o Operator) IsSuper() bool    { return o.Role == RoleSuperAdmin }
func (o Operator) IsFallback() bool { return o.ID == FallbackSuperAdminID }

// Credential is one registered passkey. CredentialID, PublicKey and AAGUID are
// binary (bytea on Postgres).
type Credential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OperatorID      string    `gorm:"type:uuid;index" json:"operatorId"`
	CredentialID    []byte    `gorm:"uniqueIndex" json:"credentialId"`
	PublicKey       []byte    `json:"-"`
	AttestationType string    `gorm:"size:64" json:"attestationType"`
	AAGUID          []byte    `json:"aaguid"`
	SignCount       uint32    `json:"signCount"`
	CloneWarning    bool      `json:"cloneWarning"`
	BackupEligible  bool      `json:"backupEligible"`
	BackupState     bool      `json:"backupState"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	LastUsedAt *time.Time `gorm:"index" json:"lastUsedAt,omitempty"`
}

func (Credential) TableName() string { return "lsb_credentials" }
