package models

import "time"

// ShibSession records a live federated (Shibboleth or OIDC) session.
// Auth tokens minted on a federated login carry the row id; deleting the
// row logs out every browser holding such a token.
type ShibSession struct {
	ID        uint64 `gorm:"primaryKey"`
	SessID    string `gorm:"size:200;not null;index"`
	Source    string `gorm:"size:20;not null"` // shibboleth or oidc
	CreatedAt time.Time
}

// TableName overrides gorm's default table name.
func (ShibSession) TableName() string {
	return "shib_sessions"
}
