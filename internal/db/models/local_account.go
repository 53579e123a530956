package models

import "time"

// LocalAccount holds the salted password of an account in the Local affiliation.
// PassHash is the hex sha1 of password+salt.
// UserID is intentionally not unique: the authenticator refuses to log in a user
// with more than one row rather than guessing which row is current.
type LocalAccount struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      uint64 `gorm:"not null;index"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Salt        string `gorm:"size:8;not null"`
	PassHash    string `gorm:"size:40;not null"`
	LastChanged time.Time
}

// TableName overrides gorm's default table name.
func (LocalAccount) TableName() string {
	return "local_accounts"
}
