package models

import (
	"strings"
	"time"
)

// User is a portal account. An account is identified by its user id
// together with the affiliation it belongs to, so "alice" at NCSU and
// "alice" at Local are two different users.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// UnityID is the user id as typed on the login form or asserted by the identity provider.
	UnityID string `gorm:"size:80;not null;uniqueIndex:idx_user_affiliation"`
	// AffiliationID is the affiliation the account belongs to.
	AffiliationID uint `gorm:"not null;uniqueIndex:idx_user_affiliation"`
	// Affiliation is the associated affiliation.
	Affiliation Affiliation `gorm:"foreignKey:AffiliationID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// FirstName is the user's given name, refreshed from the directory on every login.
	FirstName string `gorm:"size:100"`
	// LastName is the user's family name.
	LastName string `gorm:"size:100"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// LastUpdated is the last time directory attributes were copied into the row.
	LastUpdated time.Time
	// CreatedAt is managed by gorm.
	CreatedAt time.Time
}

// TableName overrides gorm's default table name.
func (User) TableName() string {
	return "users"
}

// LoginIdentity returns "userid@affiliation", the string carried inside the auth token.
// The Affiliation association must be loaded.
func (u *User) LoginIdentity() string {
	return FormatLoginIdentity(u.UnityID, u.Affiliation.Name)
}

// FormatLoginIdentity joins a user id and an affiliation name.
func FormatLoginIdentity(unityID, affiliation string) string {
	return unityID + "@" + affiliation
}

// SplitLoginIdentity is the inverse of FormatLoginIdentity.
// The split happens at the last "@" so user ids may contain "@" themselves.
func SplitLoginIdentity(identity string) (unityID, affiliation string, ok bool) {
	i := strings.LastIndex(identity, "@")
	if i <= 0 || i == len(identity)-1 {
		return "", "", false
	}

	return identity[:i], identity[i+1:], true
}
