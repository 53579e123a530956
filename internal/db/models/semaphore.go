package models

import "time"

// Semaphore is a named advisory lock. A row exists while the lock is held;
// rows past ExpiresAt are considered abandoned and may be taken over.
type Semaphore struct {
	Name      string `gorm:"primaryKey;size:120"`
	Owner     string `gorm:"size:36;not null"`
	ExpiresAt time.Time
}

// TableName overrides gorm's default table name.
func (Semaphore) TableName() string {
	return "semaphores"
}
