// Package handlertest holds the fixtures shared by the handler and middleware tests.
package handlertest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/controller/semaphore"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/session"
)

const (
	// IPHeader carries the client address of test requests.
	IPHeader = "X-Real-IP"
	// ClientIP is the address test requests come from.
	ClientIP = "10.0.0.1"

	// Mechanism keys of the fixture registry.
	MechLocal    = "Local Account"
	MechExternal = "External"

	// LocalUser and LocalPassword is the seeded local account.
	LocalUser     = "admin"
	LocalPassword = "s3cret"

	// ExternalURL is where MechExternal redirects to.
	ExternalURL = "https://idp.example.edu/login"
	// ShibLogoutURL is the configured Shibboleth logout URL.
	ShibLogoutURL = "https://sp.example.edu/Shibboleth.sso/Logout"
	// ShibScope maps to the affiliation ShibAffiliation.
	ShibScope       = "ncsu.edu"
	ShibAffiliation = "ncsu"
)

var (
	keysOnce sync.Once     //nolint:gochecknoglobals
	keys     *auth.KeyPair //nolint:gochecknoglobals
)

// NoOpViews is a minimal fiber Views engine. It writes the template name
// followed by the "Error" field of the data, if any, so tests can assert
// which page was rendered and with which message.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	_, _ = io.WriteString(w, name)

	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["Error"]; exists && v != nil && v != "" {
			_, _ = fmt.Fprintf(w, ": %v", v)
		}
	}

	return nil
}

// Fixture is a fully wired set of login components over an in-memory database.
type Fixture struct {
	DB   *gorm.DB
	Cfg  *config.Config
	Deps *handler.Deps
}

// NewApp creates a fiber app that reads the client address from IPHeader.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		Views:       NoOpViews{},
		ProxyHeader: IPHeader,
	})
}

// NewDB creates a migrated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

// NewConfig returns a config in dev mode, so cookies are not marked secure.
func NewConfig() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "GoVCL",
		DB:      config.DB{GormEngine: config.EngineSQLite},
		Webserver: config.Webserver{
			URL:         "http://localhost",
			Port:        3000,
			ProxyHeader: IPHeader,
		},
		Auth: config.Auth{
			TokenFormat:     config.TokenFormatPKCS1,
			ValidityMinutes: 60,
			EntryPoint:      "/",
			Shibboleth: config.Shibboleth{
				Enabled:       true,
				MechanismKey:  "Shibboleth",
				LogoutURL:     ShibLogoutURL,
				ScopeMap:      map[string]string{ShibScope: ShibAffiliation},
				EPPNHeader:    "eppn",
				SessionHeader: "Shib-Session-ID",
			},
			Demo: config.Demo{NoDemoAffiliation: "Global"},
		},
	}
}

// New builds a fixture with a local and an external redirect mechanism and
// the local account LocalUser.
func New(t *testing.T) *Fixture {
	t.Helper()

	ctx := context.Background()
	db := NewDB(t)
	cfg := NewConfig()

	keysOnce.Do(func() {
		var err error

		keys, err = auth.GenerateKeyPair(auth.MinKeyBits)
		if err != nil {
			panic(err)
		}
	})

	local := auth.NewLocalAuthenticator(db)
	_, err := local.SetPassword(ctx, LocalUser, LocalPassword, auth.Profile{FirstName: "Admin"})
	require.NoError(t, err)

	localAff, err := auth.EnsureAffiliation(ctx, db, models.AffiliationLocal)
	require.NoError(t, err)

	extAff, err := auth.EnsureAffiliation(ctx, db, ShibAffiliation)
	require.NoError(t, err)

	registry, err := auth.NewRegistry(
		&auth.LocalMechanism{Common: auth.Common{ID: MechLocal, HelpText: "Local accounts", Aff: *localAff}},
		&auth.RedirectMechanism{Common: auth.Common{ID: MechExternal, Aff: *extAff}, URL: ExternalURL},
	)
	require.NoError(t, err)

	sessions := auth.NewShibSessions(db)

	codec, err := auth.NewTokenCodec(keys, cfg.Auth.TokenFormat, sessions)
	require.NoError(t, err)

	audit := auth.NewAuditLogger(db, nil)
	establisher := auth.NewSessionEstablisher(
		codec, audit, time.Duration(cfg.Auth.ValidityMinutes)*time.Minute, cfg.Auth.EntryPoint)

	deps := &handler.Deps{
		Auth:        &auth.AuthContext{Keys: keys, Registry: registry, Codec: codec},
		Dispatcher:  auth.NewDispatcher(registry, auth.NewLDAPAuthenticator(db), local, establisher, audit),
		Establisher: establisher,
		Audit:       audit,
		Sessions:    sessions,
		Shibboleth: auth.NewShibbolethLogin(
			db, cfg.Auth.Shibboleth.MechanismKey, cfg.Auth.Shibboleth.ScopeMap, sessions, establisher, audit),
		Guard:  auth.NewDemoGuard(db, semaphore.New(db), nil, cfg.Auth.Demo.NoDemoAffiliation, cfg.Auth.EntryPoint),
		States: session.NewMemory(),
	}

	return &Fixture{DB: db, Cfg: cfg, Deps: deps}
}

// LocalAccount returns the seeded local user with its affiliation loaded.
func (f *Fixture) LocalAccount(t *testing.T) *models.User {
	t.Helper()

	user, err := auth.UserByLoginIdentity(
		context.Background(), f.DB, models.FormatLoginIdentity(LocalUser, models.AffiliationLocal))
	require.NoError(t, err)

	return user
}

// Token mints a VCLAUTH value for user bound to ClientIP.
func (f *Fixture) Token(t *testing.T, user *models.User, shibSessionID uint64) string {
	t.Helper()

	tok, err := f.Deps.Auth.Codec.Encode(user.LoginIdentity(), ClientIP, time.Hour, shibSessionID)
	require.NoError(t, err)

	return tok.Value
}

// Cookie returns the response cookie called name, nil when absent.
func Cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}
