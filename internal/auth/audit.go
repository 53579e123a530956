package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/controller/loginlog"
	"github.com/GoVCL/GoVCL/internal/db/models"
)

// maxAuditLogin is the width of login_logs.login.
const maxAuditLogin = 150

// Attempt is one login attempt to be audited.
type Attempt struct {
	Login         string
	Mechanism     string
	AffiliationID uint
	Success       bool
	Code          string
	RemoteIP      string
}

// SecretKeyChecker is run after every successful login.
type SecretKeyChecker interface {
	CheckSecretKeys(ctx context.Context, affiliationID uint) error
}

// AuditLogger appends login attempts to the login log.
type AuditLogger struct {
	db      *gorm.DB
	secrets SecretKeyChecker
	now     func() time.Time
}

// NewAuditLogger creates an audit logger. secrets may be nil.
func NewAuditLogger(db *gorm.DB, secrets SecretKeyChecker) *AuditLogger {
	registerMetrics()

	return &AuditLogger{db: db, secrets: secrets, now: time.Now}
}

// Record stores a. On success the secret key check runs before Record returns.
func (a *AuditLogger) Record(ctx context.Context, at Attempt) error {
	entry := &models.LoginLog{
		Login:         at.Login,
		AuthMech:      at.Mechanism,
		AffiliationID: at.AffiliationID,
		PassFail:      at.Success,
		RemoteIP:      at.RemoteIP,
		Code:          at.Code,
		Timestamp:     a.now(),
	}

	if err := loginlog.Insert(ctx, a.db, entry); err != nil {
		return fmt.Errorf("audit login of %s: %w", at.Login, err)
	}

	result := "failure"
	if at.Success {
		result = "success"
	}

	loginAttempts.WithLabelValues(at.Mechanism, result).Inc()

	log.Info().
		Str("login", at.Login).
		Str("mechanism", at.Mechanism).
		Str("remote_ip", at.RemoteIP).
		Str("code", entry.Code).
		Bool("success", at.Success).
		Msg("login attempt")

	if !at.Success || a.secrets == nil {
		return nil
	}

	return a.secrets.CheckSecretKeys(ctx, at.AffiliationID)
}
