package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/handler/handlertest"
)

const (
	mechCampus = "Campus SSO"
	clientID   = "govcl"
	kid        = "test-key"
)

// identityProvider serves discovery, keys and a token endpoint that answers
// "good" codes with an id token for carol and everything else with an error.
func identityProvider(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	var srv *httptest.Server

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"issuer":                                srv.URL,
				"authorization_endpoint":                srv.URL + "/authorize",
				"token_endpoint":                        srv.URL + "/token",
				"jwks_uri":                              srv.URL + "/keys",
				"id_token_signing_alg_values_supported": []string{"RS256"},
			})
		case "/keys":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"keys": []map[string]string{{
					"kty": "RSA",
					"alg": "RS256",
					"use": "sig",
					"kid": kid,
					"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
				}},
			})
		case "/token":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})

				return
			}

			now := time.Now()
			tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
				"iss":                srv.URL,
				"aud":                clientID,
				"sub":                "u-1",
				"sid":                "sid-1",
				"iat":                now.Unix(),
				"exp":                now.Add(time.Hour).Unix(),
				"preferred_username": "carol",
				"given_name":         "Carol",
				"email":              "carol@example.edu",
			})
			tok.Header["kid"] = kid

			idToken, err := tok.SignedString(key)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)

				return
			}

			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "at",
				"token_type":   "Bearer",
				"expires_in":   3600,
				"id_token":     idToken,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

type fixture struct {
	*handlertest.Fixture
	app      *fiber.App
	provider *auth.OIDCProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	f := handlertest.New(t)
	srv := identityProvider(t, f.Deps.Auth.Keys.Private)

	aff, err := auth.EnsureAffiliation(ctx, f.DB, "campus")
	require.NoError(t, err)

	p, err := auth.NewOIDCProvider(ctx, mechCampus, *aff, auth.OIDCConfig{
		ProviderURL: srv.URL,
		ClientID:    clientID,
		RedirectURL: "http://localhost" + CallbackPath,
	}, f.DB, f.Deps.States)
	require.NoError(t, err)

	registry, err := auth.NewRegistry(
		&auth.RedirectMechanism{Common: auth.Common{ID: mechCampus, Aff: *aff}, Provider: p},
		&auth.LocalMechanism{Common: auth.Common{ID: handlertest.MechLocal}},
	)
	require.NoError(t, err)

	f.Deps.Auth.Registry = registry

	app := handlertest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, f.Cfg, f.DB, f.Deps))

	return &fixture{Fixture: f, app: app, provider: p}
}

func (f *fixture) state(t *testing.T) string {
	t.Helper()

	target, err := f.provider.AuthURL(context.Background())
	require.NoError(t, err)

	u, err := url.Parse(target)
	require.NoError(t, err)

	return u.Query().Get("state")
}

func (f *fixture) callback(t *testing.T, query url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, CallbackPath+"?"+query.Encode(), nil)
	req.Header.Set(handlertest.IPHeader, handlertest.ClientIP)

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestCallback_UnknownState(t *testing.T) {
	f := newFixture(t)

	resp := f.callback(t, url.Values{"state": {"nope"}, "code": {"good"}})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestCallback_Success(t *testing.T) {
	f := newFixture(t)
	state := f.state(t)

	resp := f.callback(t, url.Values{"state": {state}, "code": {"good"}})

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	tokenCookie := handlertest.Cookie(resp, auth.CookieToken)
	require.NotNil(t, tokenCookie)

	ctx := context.Background()
	tok, err := f.Deps.Auth.Codec.Decode(ctx, tokenCookie.Value, handlertest.ClientIP, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "carol@campus", tok.LoginIdentity)
	require.NotZero(t, tok.ShibSessionID)

	var sess models.ShibSession
	require.NoError(t, f.DB.First(&sess, tok.ShibSessionID).Error)
	assert.Equal(t, "sid-1", sess.SessID)
	assert.Equal(t, auth.SourceOIDC, sess.Source)

	// a state is good for one callback only
	resp = f.callback(t, url.Values{"state": {state}, "code": {"good"}})
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestCallback_ExchangeRejected(t *testing.T) {
	f := newFixture(t)

	resp := f.callback(t, url.Values{"state": {f.state(t)}, "code": {"bad"}})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, handlertest.Cookie(resp, auth.CookieToken))

	var rows []models.LoginLog
	require.NoError(t, f.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].PassFail)
	assert.Equal(t, mechCampus, rows[0].AuthMech)
	assert.Equal(t, models.LoginCodeInvalidCredentials, rows[0].Code)
}

func TestCallback_ProviderError(t *testing.T) {
	f := newFixture(t)

	resp := f.callback(t, url.Values{"state": {f.state(t)}, "error": {"access_denied"}})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
