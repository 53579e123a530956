package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/handler/handlertest"
)

func newTestService(t *testing.T) (*Service, *handlertest.Fixture) {
	t.Helper()

	f := handlertest.New(t)
	f.Cfg.DevMode = false // embedded templates

	s, err := New(f.Cfg, f.DB, f.Deps)
	require.NoError(t, err)

	return s, f
}

func perform(t *testing.T, s *Service, req *http.Request) (*http.Response, string) {
	t.Helper()

	req.Header.Set(handlertest.IPHeader, handlertest.ClientIP)

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(b)
}

func TestNew_NilArguments(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestCheckAlive(t *testing.T) {
	s, _ := newTestService(t)

	resp, body := perform(t, s, httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	s.alive.Store(false)

	resp, _ = perform(t, s, httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s, _ := newTestService(t)

	resp, body := perform(t, s, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestProtectedRouteRedirectsToLogin(t *testing.T) {
	s, _ := newTestService(t)

	resp, _ := perform(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestLoginPageRendersTemplates(t *testing.T) {
	s, _ := newTestService(t)

	resp, body := perform(t, s, httptest.NewRequest(http.MethodGet, handler.LoginPath, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>GoVCL</title>")
	assert.Contains(t, body, handlertest.MechLocal)
	assert.Contains(t, body, handlertest.MechExternal)
}

func TestLoginThenHome(t *testing.T) {
	s, _ := newTestService(t)

	form := url.Values{
		"authtype": {handlertest.MechLocal},
		"userid":   {handlertest.LocalUser},
		"password": {handlertest.LocalPassword},
	}

	req := httptest.NewRequest(http.MethodPost, handler.LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, _ := perform(t, s, req)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	tokenCookie := handlertest.Cookie(resp, auth.CookieToken)
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.Secure)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: tokenCookie.Value})

	resp, body := perform(t, s, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "admin@Local")
}

func TestStaticFiles(t *testing.T) {
	s, _ := newTestService(t)

	resp, body := perform(t, s, httptest.NewRequest(http.MethodGet, StaticPath+"/css/govcl.css", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "font-family")
}

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{handler.LoginPath, true},
		{StaticPath + "/css/govcl.css", true},
		{"/auth/oidc/callback", true},
		{CheckAlivePath, true},
		{"/loginhistory", false},
		{"/metrics-admin", false},
		{"/staticfiles/x", false},
		{"/LOGIN", false},
		{"/", false},
		{"/api/whoami", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublicPath(tt.path))
		})
	}
}

func TestPrefixLookalikeNeedsToken(t *testing.T) {
	s, _ := newTestService(t)
	s.App.Get("/loginhistory", func(c *fiber.Ctx) error {
		return c.SendString("history")
	})

	resp, body := perform(t, s, httptest.NewRequest(http.MethodGet, "/loginhistory", nil))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.NotContains(t, body, "history")
	assert.Equal(t, handler.LoginPath, resp.Header.Get("Location"))
}
