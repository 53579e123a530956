package models

import "time"

// ReservationLog is the history row of a reservation. A reservation is
// completed once FinalEnd lies in the past.
type ReservationLog struct {
	ID       uint64    `gorm:"primaryKey"`
	UserID   uint64    `gorm:"not null;index"`
	Start    time.Time `gorm:"not null"`
	FinalEnd time.Time `gorm:"not null"`
}

// TableName overrides gorm's default table name.
func (ReservationLog) TableName() string {
	return "reservation_logs"
}
