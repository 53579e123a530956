package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Profile holds the directory attributes copied into the users table.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
}

// EnsureAffiliation returns the affiliation called name, creating it if needed.
func EnsureAffiliation(ctx context.Context, db *gorm.DB, name string) (*models.Affiliation, error) {
	aff := models.Affiliation{Name: name}

	if err := db.WithContext(ctx).
		Where(models.Affiliation{Name: name}).
		Attrs(models.Affiliation{Theme: models.DefaultTheme}).
		FirstOrCreate(&aff).Error; err != nil {
		return nil, fmt.Errorf("ensure affiliation %q: %w", name, err)
	}

	return &aff, nil
}

// UpsertUser inserts or refreshes the user (unityID, aff). Calling it twice
// with the same input leaves a single row.
func UpsertUser(
	ctx context.Context,
	db *gorm.DB,
	unityID string,
	aff models.Affiliation,
	p Profile,
	now time.Time,
) (*models.User, error) {
	db = db.WithContext(ctx)

	row := models.User{
		UnityID:       unityID,
		AffiliationID: aff.ID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		LastUpdated:   now,
	}

	if err := db.Omit("Affiliation").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unity_id"}, {Name: "affiliation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "last_updated"}),
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", models.FormatLoginIdentity(unityID, aff.Name), err)
	}

	var user models.User
	if err := db.Preload("Affiliation").
		Where("unity_id = ? AND affiliation_id = ?", unityID, aff.ID).
		First(&user).Error; err != nil {
		return nil, fmt.Errorf("reload user %s: %w", models.FormatLoginIdentity(unityID, aff.Name), err)
	}

	return &user, nil
}

// UserByLoginIdentity resolves "userid@affiliation" to its user row, with the affiliation loaded.
func UserByLoginIdentity(ctx context.Context, db *gorm.DB, identity string) (*models.User, error) {
	unityID, affName, ok := models.SplitLoginIdentity(identity)
	if !ok {
		return nil, fmt.Errorf("%w: malformed login identity %q", ErrUserNotFound, identity)
	}

	var user models.User

	err := db.WithContext(ctx).
		Preload("Affiliation").
		Joins("JOIN affiliations ON affiliations.id = users.affiliation_id").
		Where("users.unity_id = ? AND affiliations.name = ?", unityID, affName).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, identity)
	}

	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", identity, err)
	}

	return &user, nil
}

// GroupNames returns the names of all groups userID belongs to.
func GroupNames(ctx context.Context, db *gorm.DB, userID uint64) ([]string, error) {
	var names []string

	err := db.WithContext(ctx).Model(&models.Group{}).
		Joins("JOIN user_group_members ON user_group_members.group_id = user_groups.id").
		Where("user_group_members.user_id = ?", userID).
		Order("user_groups.name").
		Pluck("user_groups.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("group names of user %d: %w", userID, err)
	}

	return names, nil
}
