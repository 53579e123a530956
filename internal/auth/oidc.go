package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/uniuri"
)

const (
	// OIDCStateLifetime is how long an authorization request may take.
	OIDCStateLifetime = 5 * time.Minute

	oidcStatePrefix = "oidc_state_"
)

// StateStore keeps short lived key/value pairs. Every fiber storage satisfies it.
// Get returns nil for missing keys.
type StateStore interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// OIDCConfig holds OpenID Connect (OIDC) configuration for a redirect mechanism.
type OIDCConfig struct {
	// ProviderURL is the OIDC provider's discovery URL (e.g., "https://accounts.google.com").
	ProviderURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// RedirectURL is the callback URL, normally ending in /auth/oidc/callback.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: ["openid", "profile", "email"]).
	Scopes []string
}

// OIDCProvider computes the external login URL of an OIDC backed redirect
// mechanism and finishes the login on callback.
type OIDCProvider struct {
	key      string
	aff      models.Affiliation
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
	states   StateStore
}

// NewOIDCProvider creates a new OIDC provider for mechanism key.
func NewOIDCProvider(
	ctx context.Context,
	key string,
	aff models.Affiliation,
	config OIDCConfig,
	db *gorm.DB,
	states StateStore,
) (*OIDCProvider, error) {
	if states == nil {
		return nil, fmt.Errorf("%w: oidc mechanism %q needs a state store", ErrConfiguration, key)
	}

	provider, err := oidc.NewProvider(ctx, config.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		key:      key,
		aff:      aff,
		verifier: provider.Verifier(&oidc.Config{ClientID: config.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		db:     db,
		states: states,
	}, nil
}

// AuthURL implements Redirector. The state remembers the mechanism key for OIDCStateLifetime.
func (p *OIDCProvider) AuthURL(_ context.Context) (string, error) {
	state := uniuri.NewLen(uniuri.UUIDLen)

	if err := p.states.Set(oidcStatePrefix+state, []byte(p.key), OIDCStateLifetime); err != nil {
		return "", fmt.Errorf("store oidc state: %w", err)
	}

	return p.oauth2.AuthCodeURL(state), nil
}

// ConsumeOIDCState returns the mechanism key a state was issued for. A state
// can be consumed once.
func ConsumeOIDCState(states StateStore, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}

	val, err := states.Get(oidcStatePrefix + state)
	if err != nil {
		return "", fmt.Errorf("read oidc state: %w", err)
	}

	if len(val) == 0 {
		return "", ErrInvalidState
	}

	if err = states.Delete(oidcStatePrefix + state); err != nil {
		return "", fmt.Errorf("delete oidc state: %w", err)
	}

	return string(val), nil
}

type oidcClaims struct {
	Sub               string `json:"sub"`
	SID               string `json:"sid"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

// unityID picks the user id: preferred_username, else the local part of email, else sub.
func (c *oidcClaims) unityID() string {
	switch {
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		local, _, _ := strings.Cut(c.Email, "@")

		return local
	default:
		return c.Sub
	}
}

// HandleCallback exchanges code, verifies the ID token and refreshes the user row.
// It returns the user and the provider's session id, the sid claim when present.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*models.User, string, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, "", reject(fmt.Errorf("failed to exchange token: %w", err))
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, "", reject(ErrNoIDToken)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", reject(fmt.Errorf("failed to verify ID token: %w", err))
	}

	var claims oidcClaims
	if err = idToken.Claims(&claims); err != nil {
		return nil, "", reject(fmt.Errorf("failed to parse claims: %w", err))
	}

	unityID := claims.unityID()
	if unityID == "" || strings.Contains(unityID, tokenSeparator) {
		return nil, "", reject(errors.New("id token carries no usable user id"))
	}

	user, err := UpsertUser(ctx, p.db, unityID, p.aff, Profile{
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Email:     claims.Email,
	}, time.Now())
	if err != nil {
		return nil, "", err
	}

	sessID := claims.SID
	if sessID == "" {
		sessID = claims.Sub + "@" + idToken.IssuedAt.UTC().Format(time.RFC3339)
	}

	return user, sessID, nil
}

// Key returns the mechanism key the provider belongs to.
func (p *OIDCProvider) Key() string {
	return p.key
}
