package models

import "time"

// UserGroupMember is one membership of a user in a group.
type UserGroupMember struct {
	UserID    uint64 `gorm:"primaryKey;column:user_id"`
	GroupID   uint   `gorm:"primaryKey;column:group_id"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Group     Group  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// TableName overrides gorm's default table name.
func (UserGroupMember) TableName() string {
	return "user_group_members"
}
