package models

import "time"

const (
	// GroupDemo is the single group a demo account belongs to.
	GroupDemo = "demo"
	// GroupNoDemo receives demo accounts once their trial is used up.
	GroupNoDemo = "nodemo"
)

// Group is a user group. Custom groups are maintained inside the portal,
// the others are fed from external sources such as course rolls.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is unique per affiliation.
	Name string `gorm:"size:100;not null;uniqueIndex:idx_group_affiliation"`
	// AffiliationID owns the group.
	AffiliationID uint `gorm:"not null;uniqueIndex:idx_group_affiliation"`
	// Affiliation is the associated affiliation.
	Affiliation Affiliation `gorm:"foreignKey:AffiliationID"`
	// Custom marks groups edited by hand in the portal.
	Custom bool `gorm:"not null"`
	// CreatedAt is managed by gorm.
	CreatedAt time.Time
}

// TableName overrides gorm's default table name.
func (Group) TableName() string {
	return "user_groups"
}
