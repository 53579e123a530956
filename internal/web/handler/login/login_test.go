package login

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler/handlertest"
)

func newTestApp(t *testing.T) (*fiber.App, *handlertest.Fixture) {
	t.Helper()

	f := handlertest.New(t)
	app := handlertest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, f.Cfg, f.DB, f.Deps))

	return app, f
}

func performGet(t *testing.T, app *fiber.App, query url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, Path+"?"+query.Encode(), nil)
	req.Header.Set(handlertest.IPHeader, handlertest.ClientIP)

	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func performPost(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(handlertest.IPHeader, handlertest.ClientIP)

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

func TestInit_NilArguments(t *testing.T) {
	var s Service
	assert.Error(t, s.Init(nil, nil, nil, nil))
}

func TestGet_ShowsMechanismList(t *testing.T) {
	app, _ := newTestApp(t)

	resp := performGet(t, app, url.Values{})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(auth.PageSelect), body(t, resp))
}

func TestGet_CredentialForm(t *testing.T) {
	app, _ := newTestApp(t)

	resp := performGet(t, app, url.Values{FieldMechanism: {handlertest.MechLocal}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(auth.PageCredentials), body(t, resp))
}

func TestGet_RedirectMechanismRemembered(t *testing.T) {
	app, _ := newTestApp(t)

	resp := performGet(t, app, url.Values{
		FieldMechanism: {handlertest.MechExternal},
		FieldRemember:  {"1"},
	})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handlertest.ExternalURL, resp.Header.Get(fiber.HeaderLocation))

	sel := handlertest.Cookie(resp, auth.CookieSelection)
	require.NotNil(t, sel)
	assert.Equal(t, handlertest.MechExternal, sel.Value)
	assert.True(t, sel.Expires.After(time.Now().Add(300*24*time.Hour)))
}

func TestGet_RememberedSelectionIsUsed(t *testing.T) {
	app, _ := newTestApp(t)

	resp := performGet(t, app, url.Values{},
		&http.Cookie{Name: auth.CookieSelection, Value: handlertest.MechLocal})

	assert.Equal(t, string(auth.PageCredentials), body(t, resp))
}

func TestGet_ClearSelection(t *testing.T) {
	app, _ := newTestApp(t)

	resp := performGet(t, app, url.Values{FieldClearSelection: {"1"}},
		&http.Cookie{Name: auth.CookieSelection, Value: handlertest.MechLocal})

	assert.Equal(t, string(auth.PageSelect), body(t, resp))

	sel := handlertest.Cookie(resp, auth.CookieSelection)
	require.NotNil(t, sel)
	assert.Empty(t, sel.Value)
	assert.True(t, sel.Expires.Before(time.Now()))
}

func TestPost_InvalidCredentials(t *testing.T) {
	app, f := newTestApp(t)

	resp := performPost(t, app, url.Values{
		FieldMechanism: {handlertest.MechLocal},
		FieldUserID:    {handlertest.LocalUser},
		FieldPassword:  {"wrong"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(auth.PageCredentials)+": "+auth.MsgLoginFailed, body(t, resp))
	assert.Nil(t, handlertest.Cookie(resp, auth.CookieToken))

	var rows []models.LoginLog
	require.NoError(t, f.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].PassFail)
	assert.Equal(t, handlertest.LocalUser, rows[0].Login)
	assert.Equal(t, handlertest.ClientIP, rows[0].RemoteIP)
}

func TestPost_MissingFieldsShowList(t *testing.T) {
	app, f := newTestApp(t)

	resp := performPost(t, app, url.Values{
		FieldMechanism: {handlertest.MechLocal},
		FieldUserID:    {handlertest.LocalUser},
	})

	assert.Equal(t, string(auth.PageSelect), body(t, resp))

	var count int64
	require.NoError(t, f.DB.Model(&models.LoginLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPost_Success(t *testing.T) {
	app, f := newTestApp(t)

	resp := performPost(t, app, url.Values{
		FieldMechanism: {handlertest.MechLocal},
		FieldUserID:    {handlertest.LocalUser},
		FieldPassword:  {handlertest.LocalPassword},
	})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	tokenCookie := handlertest.Cookie(resp, auth.CookieToken)
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.HttpOnly)

	skin := handlertest.Cookie(resp, auth.CookieSkin)
	require.NotNil(t, skin)
	assert.Equal(t, models.DefaultTheme, skin.Value)

	tok, err := f.Deps.Auth.Codec.Decode(context.Background(), tokenCookie.Value, handlertest.ClientIP, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "admin@Local", tok.LoginIdentity)

	_, err = f.Deps.Auth.Codec.Decode(context.Background(), tokenCookie.Value, "10.9.9.9", time.Now())
	assert.ErrorIs(t, err, auth.ErrIPMismatch)
}
