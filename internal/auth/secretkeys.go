package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/controller/setting"
	"github.com/GoVCL/GoVCL/internal/uniuri"
)

// SecretKeyStore makes sure every affiliation that logged in has a secret key,
// stored in the settings table under SecretKeySetting.
type SecretKeyStore struct {
	db           *gorm.DB
	signingKeyID string
}

// NewSecretKeyStore creates a SecretKeyStore. signingKeyID identifies the key
// new secrets are wrapped for and must not be empty when the check runs.
func NewSecretKeyStore(db *gorm.DB, signingKeyID string) *SecretKeyStore {
	return &SecretKeyStore{db: db, signingKeyID: signingKeyID}
}

// SecretKeySetting returns the settings name holding the secret of affiliationID.
func SecretKeySetting(affiliationID uint) string {
	return fmt.Sprintf("secretkey.affiliation.%d", affiliationID)
}

// CheckSecretKeys creates the secret of affiliationID if it is missing.
func (s *SecretKeyStore) CheckSecretKeys(ctx context.Context, affiliationID uint) error {
	secret, err := s.newSecret()
	if err != nil {
		return err
	}

	name := SecretKeySetting(affiliationID)

	created, err := setting.SetIfAbsent(ctx, s.db, name, secret)
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}

	if created {
		log.Info().Uint("affiliation_id", affiliationID).Str("signing_key", s.signingKeyID).Msg("created missing secret key")
	}

	return nil
}

func (s *SecretKeyStore) newSecret() ([]byte, error) {
	if s.signingKeyID == "" {
		return nil, fmt.Errorf("%w: no signing key id configured for secret keys", ErrConfiguration)
	}

	return []byte(s.signingKeyID + ":" + uniuri.NewLen(uniuri.UUIDLen)), nil
}

// SecretKey returns the stored secret of affiliationID.
func (s *SecretKeyStore) SecretKey(ctx context.Context, affiliationID uint) ([]byte, error) {
	st, err := setting.Get(ctx, s.db, SecretKeySetting(affiliationID))
	if err != nil {
		return nil, err
	}

	return st.Value, nil
}

// Rotate replaces the secret of affiliationID, creating it if missing.
func (s *SecretKeyStore) Rotate(ctx context.Context, affiliationID uint) error {
	secret, err := s.newSecret()
	if err != nil {
		return err
	}

	if err = setting.Set(ctx, s.db, SecretKeySetting(affiliationID), secret); err != nil {
		return fmt.Errorf("rotate secret key of affiliation %d: %w", affiliationID, err)
	}

	log.Info().Uint("affiliation_id", affiliationID).Str("signing_key", s.signingKeyID).Msg("rotated secret key")

	return nil
}
