package token

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/handler/handlertest"
)

func newTestApp(t *testing.T, now func() time.Time) (*fiber.App, *handlertest.Fixture) {
	t.Helper()

	f := handlertest.New(t)
	app := handlertest.NewApp()

	app.Use(New(Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), handler.LoginPath)
		},
		App:  f.Cfg,
		DB:   f.DB,
		Deps: f.Deps,
		Now:  now,
	}))

	whoami := func(c *fiber.Ctx) error {
		u := User(c)
		return c.SendString(c.Locals(LocalsLogin).(string) + " " + u.UnityID)
	}

	app.Get("/", whoami)
	app.Get("/api/ping", whoami)
	app.Get(handler.LoginPath, func(c *fiber.Ctx) error { return c.SendString("login") })

	return app, f
}

func perform(t *testing.T, app *fiber.App, path, ip, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(handlertest.IPHeader, ip)

	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: token})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

func assertCleared(t *testing.T, resp *http.Response) {
	t.Helper()

	c := handlertest.Cookie(resp, auth.CookieToken)
	require.NotNil(t, c, "token cookie must be cleared")
	assert.Empty(t, c.Value)
}

func TestMiddleware_NoCookie(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp := perform(t, app, "/", handlertest.ClientIP, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))

	resp = perform(t, app, "/api/ping", handlertest.ClientIP, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), MsgAuthRequired)
}

func TestMiddleware_Skipped(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp := perform(t, app, handler.LoginPath, handlertest.ClientIP, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "login", body(t, resp))
}

func TestMiddleware_ValidToken(t *testing.T) {
	app, f := newTestApp(t, nil)

	resp := perform(t, app, "/", handlertest.ClientIP, f.Token(t, f.LocalAccount(t), 0))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin@Local admin", body(t, resp))
}

func TestMiddleware_OtherAddress(t *testing.T) {
	app, f := newTestApp(t, nil)

	resp := perform(t, app, "/", "10.0.0.2", f.Token(t, f.LocalAccount(t), 0))

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
	assertCleared(t, resp)
}

func TestMiddleware_Garbage(t *testing.T) {
	app, _ := newTestApp(t, nil)

	resp := perform(t, app, "/", handlertest.ClientIP, "bm90IGEgdG9rZW4=")

	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
	assertCleared(t, resp)
}

func TestMiddleware_Expired(t *testing.T) {
	app, f := newTestApp(t, func() time.Time { return time.Now().Add(2 * time.Hour) })

	resp := perform(t, app, "/", handlertest.ClientIP, f.Token(t, f.LocalAccount(t), 0))

	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
	assertCleared(t, resp)
}

func TestMiddleware_RevokedFederatedSession(t *testing.T) {
	app, f := newTestApp(t, nil)
	ctx := context.Background()

	id, err := f.Deps.Sessions.Create(ctx, "_sess", auth.SourceShibboleth)
	require.NoError(t, err)

	token := f.Token(t, f.LocalAccount(t), id)

	resp := perform(t, app, "/", handlertest.ClientIP, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.Deps.Sessions.Delete(ctx, id))

	resp = perform(t, app, "/", handlertest.ClientIP, token)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, f.Deps.Establisher.EntryPoint(), resp.Header.Get(fiber.HeaderLocation))
	assertCleared(t, resp)
}

// expiredDemo makes the local account a demo user whose first completed
// reservation started four days ago.
func expiredDemo(t *testing.T, f *handlertest.Fixture) *models.User {
	t.Helper()

	ctx := context.Background()
	user := f.LocalAccount(t)

	global, err := auth.EnsureAffiliation(ctx, f.DB, "Global")
	require.NoError(t, err)

	demo := models.Group{Name: models.GroupDemo, AffiliationID: global.ID, Custom: true}
	require.NoError(t, f.DB.Create(&demo).Error)
	require.NoError(t, f.DB.Create(&models.UserGroupMember{UserID: user.ID, GroupID: demo.ID}).Error)

	start := time.Now().Add(-96 * time.Hour)
	require.NoError(t, f.DB.Create(&models.ReservationLog{
		UserID: user.ID, Start: start, FinalEnd: start.Add(time.Hour),
	}).Error)

	return user
}

func TestMiddleware_DemoExpiredPage(t *testing.T) {
	app, f := newTestApp(t, nil)
	user := expiredDemo(t, f)

	resp := perform(t, app, "/", handlertest.ClientIP, f.Token(t, user, 0))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(auth.PageAccountExpired), body(t, resp))

	groups, err := auth.GroupNames(context.Background(), f.DB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GroupNoDemo}, groups)
}

func TestMiddleware_DemoExpiredAPI(t *testing.T) {
	app, f := newTestApp(t, nil)
	user := expiredDemo(t, f)

	resp := perform(t, app, "/api/ping", handlertest.ClientIP, f.Token(t, user, 0))

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, f.Deps.Establisher.EntryPoint(), resp.Header.Get(fiber.HeaderLocation))

	// after eviction the account is no longer demo only and passes
	resp = perform(t, app, "/api/ping", handlertest.ClientIP, f.Token(t, user, 0))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
