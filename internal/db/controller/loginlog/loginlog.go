// Package loginlog appends to and reads from the login audit log.
package loginlog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrEntryNil is returned when Insert is called without an entry.
	ErrEntryNil = errors.New("login log entry is nil")
)

// Insert appends entry. An empty code is stored as "none".
func Insert(ctx context.Context, db *gorm.DB, entry *models.LoginLog) error {
	if db == nil {
		return ErrDBNil
	}

	if entry == nil {
		return ErrEntryNil
	}

	if entry.Code == "" {
		entry.Code = models.LoginCodeNone
	}

	return db.WithContext(ctx).Create(entry).Error
}

// Recent returns up to limit entries, newest first. An empty login returns entries of all users.
func Recent(ctx context.Context, db *gorm.DB, login string, limit int) ([]models.LoginLog, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var entries []models.LoginLog

	q := db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit)
	if login != "" {
		q = q.Where("login = ?", login)
	}

	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
