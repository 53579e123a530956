package auth

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Federated session sources.
const (
	SourceShibboleth = "shibboleth"
	SourceOIDC       = "oidc"
)

// ShibSessions stores federated sessions. It implements SessionChecker.
type ShibSessions struct {
	db *gorm.DB
}

// NewShibSessions creates a new federated session store.
func NewShibSessions(db *gorm.DB) *ShibSessions {
	return &ShibSessions{db: db}
}

// Create records a live federated session and returns its id.
func (s *ShibSessions) Create(ctx context.Context, sessID, source string) (uint64, error) {
	row := models.ShibSession{SessID: sessID, Source: source, CreatedAt: time.Now()}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create %s session: %w", source, err)
	}

	return row.ID, nil
}

// ShibSessionExists reports whether session id is still live.
func (s *ShibSessions) ShibSessionExists(ctx context.Context, id uint64) (bool, error) {
	var count int64

	if err := s.db.WithContext(ctx).Model(&models.ShibSession{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// Delete ends session id. Every token bound to it stops validating.
func (s *ShibSessions) Delete(ctx context.Context, id uint64) error {
	if err := s.db.WithContext(ctx).Delete(&models.ShibSession{}, id).Error; err != nil {
		return fmt.Errorf("delete federated session %d: %w", id, err)
	}

	return nil
}

// DeleteBySessID ends every session recorded for the identity provider session sessID.
func (s *ShibSessions) DeleteBySessID(ctx context.Context, sessID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("sess_id = ?", sessID).Delete(&models.ShibSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete federated session %q: %w", sessID, result.Error)
	}

	return result.RowsAffected, nil
}
