package models

import "time"

// Codes stored in LoginLog.Code.
const (
	LoginCodeNone               = "none"
	LoginCodeInvalidCredentials = "invalid credentials"
)

// LoginLog is one audited login attempt. Rows are only ever inserted.
type LoginLog struct {
	ID            uint64    `gorm:"primaryKey"`
	Login         string    `gorm:"size:150;not null;index"`
	AuthMech      string    `gorm:"size:30;not null"`
	AffiliationID uint      `gorm:"not null"`
	PassFail      bool      `gorm:"not null"`
	RemoteIP      string    `gorm:"size:45;not null"`
	Code          string    `gorm:"size:30;not null;default:'none'"`
	Timestamp     time.Time `gorm:"not null;index"`
}

// TableName overrides gorm's default table name.
func (LoginLog) TableName() string {
	return "login_logs"
}
