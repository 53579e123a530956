// Package setting stores named binary values in the settings table,
// e.g. the per affiliation secret keys.
package setting

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to read or write a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func session(ctx context.Context, db *gorm.DB, name string) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	return db.WithContext(ctx), nil
}

// Get returns the setting called name.
func Get(ctx context.Context, db *gorm.DB, name string) (*models.Setting, error) {
	tx, err := session(ctx, db, name)
	if err != nil {
		return nil, err
	}

	var st models.Setting

	if err = tx.Where(&models.Setting{Name: name}).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, err
	}

	return &st, nil
}

// Set creates or replaces the setting called name.
func Set(ctx context.Context, db *gorm.DB, name string, value []byte) error {
	tx, err := session(ctx, db, name)
	if err != nil {
		return err
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Name: name, Value: value}).Error
}

// SetIfAbsent stores value unless a setting called name already exists.
// It reports whether the value was stored; concurrent callers see exactly one true.
func SetIfAbsent(ctx context.Context, db *gorm.DB, name string, value []byte) (bool, error) {
	tx, err := session(ctx, db, name)
	if err != nil {
		return false, err
	}

	result := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Setting{Name: name, Value: value})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Delete removes the setting called name.
func Delete(ctx context.Context, db *gorm.DB, name string) error {
	tx, err := session(ctx, db, name)
	if err != nil {
		return err
	}

	result := tx.Where(&models.Setting{Name: name}).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
