// Package models contains the gorm models of the portal database.
package models

// Setting is a named blob of runtime state, e.g. per affiliation secret keys.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:191"`
	Value []byte
}

// TableName overrides gorm's default table name.
func (Setting) TableName() string {
	return "settings"
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Affiliation{},
		&User{},
		&LocalAccount{},
		&Group{},
		&UserGroupMember{},
		&LoginLog{},
		&ShibSession{},
		&ReservationLog{},
		&Semaphore{},
		&Setting{},
	}
}
