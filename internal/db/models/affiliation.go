package models

const (
	// AffiliationLocal owns the accounts checked by the local password store.
	AffiliationLocal = "Local"

	// DefaultTheme is used when an affiliation has no theme of its own.
	DefaultTheme = "default"
)

// Affiliation is an institution or realm users belong to.
type Affiliation struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:40;not null;unique"`
	// Theme is sent to the browser in the skin cookie.
	Theme string `gorm:"size:50;not null;default:'default'"`
}

// TableName overrides gorm's default table name.
func (Affiliation) TableName() string {
	return "affiliations"
}

// ThemeOrDefault returns Theme, or DefaultTheme when unset.
func (a *Affiliation) ThemeOrDefault() string {
	if a.Theme == "" {
		return DefaultTheme
	}

	return a.Theme
}
