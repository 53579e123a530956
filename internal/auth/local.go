package auth

import (
	"context"
	"crypto/sha1" //nolint:gosec // the stored hash format is sha1(password+salt)
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/uniuri"
)

// SaltLen is the length of local account salts.
const SaltLen = 8

// ErrEmptyPassword is returned when SetPassword is called without a password.
var ErrEmptyPassword = errors.New("password must not be empty")

// LocalAuthenticator checks passwords of accounts in the Local affiliation.
type LocalAuthenticator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLocalAuthenticator creates a new local authenticator.
func NewLocalAuthenticator(db *gorm.DB) *LocalAuthenticator {
	return &LocalAuthenticator{db: db, now: time.Now}
}

// HashPassword returns the hex sha1 of password+salt.
func HashPassword(password, salt string) string {
	sum := sha1.Sum([]byte(password + salt)) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

func (p *LocalAuthenticator) localAccounts(ctx context.Context, userid string) *gorm.DB {
	return p.db.WithContext(ctx).Model(&models.LocalAccount{}).
		Joins("JOIN users ON users.id = local_accounts.user_id").
		Joins("JOIN affiliations ON affiliations.id = users.affiliation_id").
		Where("users.unity_id = ? AND affiliations.name = ?", userid, models.AffiliationLocal)
}

// Validate reports whether password is correct for userid. Exactly one salt row
// must exist, and exactly one row must match the computed hash.
func (p *LocalAuthenticator) Validate(ctx context.Context, userid, password string) bool {
	var salts []string
	if err := p.localAccounts(ctx, userid).Pluck("local_accounts.salt", &salts).Error; err != nil {
		log.Error().Err(err).Str("userid", userid).Msg("failed to read local salt")

		return false
	}

	if len(salts) != 1 {
		return false
	}

	var count int64
	if err := p.localAccounts(ctx, userid).
		Where("local_accounts.pass_hash = ?", HashPassword(password, salts[0])).
		Count(&count).Error; err != nil {
		log.Error().Err(err).Str("userid", userid).Msg("failed to check local password")

		return false
	}

	return count == 1
}

// Authenticate validates the credentials and returns the user.
func (p *LocalAuthenticator) Authenticate(ctx context.Context, userid, password string) (*models.User, error) {
	if !p.Validate(ctx, userid, password) {
		return nil, reject(nil)
	}

	user, err := UserByLoginIdentity(ctx, p.db, models.FormatLoginIdentity(userid, models.AffiliationLocal))
	if err != nil {
		return nil, err
	}

	return user, nil
}

// SetPassword creates the Local account userid if needed and stores a new
// salted hash for it, replacing any existing rows.
func (p *LocalAuthenticator) SetPassword(ctx context.Context, userid, password string, profile Profile) (*models.User, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	var user *models.User

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aff, err := EnsureAffiliation(ctx, tx, models.AffiliationLocal)
		if err != nil {
			return err
		}

		if user, err = UpsertUser(ctx, tx, userid, *aff, profile, p.now()); err != nil {
			return err
		}

		if err = tx.Where("user_id = ?", user.ID).Delete(&models.LocalAccount{}).Error; err != nil {
			return fmt.Errorf("remove old password: %w", err)
		}

		salt := uniuri.NewLen(SaltLen)

		return tx.Create(&models.LocalAccount{
			UserID:      user.ID,
			Salt:        salt,
			PassHash:    HashPassword(password, salt),
			LastChanged: p.now(),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("set password for %s: %w", userid, err)
	}

	return user, nil
}
