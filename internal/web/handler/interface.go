package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *Deps) error
}

// Deps are the login components shared by handlers and middleware.
// They are built once by the daemon.
type Deps struct {
	Auth        *auth.AuthContext
	Dispatcher  *auth.Dispatcher
	Establisher *auth.SessionEstablisher
	Audit       *auth.AuditLogger
	Sessions    *auth.ShibSessions
	// Shibboleth is nil unless the Shibboleth entry point is enabled.
	Shibboleth *auth.ShibbolethLogin
	// Guard is nil when the demo lifecycle check is disabled.
	Guard *auth.DemoGuard
	// States keeps OIDC authorization states.
	States auth.StateStore
}
