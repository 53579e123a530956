package daemon

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Seed creates the Local affiliation and the demo groups. It is idempotent.
func Seed(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if _, err := auth.EnsureAffiliation(ctx, db, models.AffiliationLocal); err != nil {
		return err
	}

	owner, err := auth.EnsureAffiliation(ctx, db, cfg.Auth.Demo.NoDemoAffiliation)
	if err != nil {
		return err
	}

	for _, name := range []string{models.GroupDemo, models.GroupNoDemo} {
		group := models.Group{}
		if err = db.WithContext(ctx).
			Where(models.Group{Name: name, AffiliationID: owner.ID}).
			Attrs(models.Group{Custom: true}).
			FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("seed group %s: %w", name, err)
		}
	}

	return nil
}
