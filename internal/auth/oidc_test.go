package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

type memStates struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStates) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data[key], nil
}

func (m *memStates) Set(key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		m.data = map[string][]byte{}
	}

	m.data[key] = val

	return nil
}

func (m *memStates) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/authorize",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestOIDCAuthURL(t *testing.T) {
	ctx := context.Background()
	srv := discoveryServer(t)
	states := &memStates{}

	p, err := NewOIDCProvider(ctx, "Campus SSO", models.Affiliation{ID: 1, Name: "ncsu"}, OIDCConfig{
		ProviderURL: srv.URL,
		ClientID:    "govcl",
		RedirectURL: "https://vcl.example.edu/auth/oidc/callback",
	}, setupTestDB(t), states)
	require.NoError(t, err)

	m := &RedirectMechanism{Common: Common{ID: "Campus SSO"}, Provider: p}

	target, err := m.Target(ctx)
	require.NoError(t, err)

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "govcl", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "openid")

	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	key, err := ConsumeOIDCState(states, state)
	require.NoError(t, err)
	assert.Equal(t, "Campus SSO", key)

	_, err = ConsumeOIDCState(states, state)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = ConsumeOIDCState(states, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestOIDCNeedsStateStore(t *testing.T) {
	_, err := NewOIDCProvider(context.Background(), "x", models.Affiliation{}, OIDCConfig{}, nil, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestOIDCClaimsUnityID(t *testing.T) {
	assert.Equal(t, "alice", (&oidcClaims{PreferredUsername: "alice", Email: "a@x"}).unityID())
	assert.Equal(t, "bob", (&oidcClaims{Email: "bob@example.edu", Sub: "123"}).unityID())
	assert.Equal(t, "123", (&oidcClaims{Sub: "123"}).unityID())
}
