package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/web/handler"
)

// Path is the path of the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil || deps.Auth == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.deps = deps

	// logout route (outside auth middleware protection)
	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout clears the token cookie. A token bound to a federated session also
// ends that session, which logs out every browser holding a token for it.
func (s *Service) Logout(c *fiber.Ctx) error {
	target := handler.LoginPath

	if value := c.Cookies(auth.CookieToken); value != "" {
		tok, err := s.deps.Auth.Codec.Open(value)
		if err == nil && tok.ShibSessionID != 0 {
			if err = s.deps.Sessions.Delete(c.UserContext(), tok.ShibSessionID); err != nil {
				log.Error().Err(err).Uint64("shib_session", tok.ShibSessionID).Msg("failed to delete federated session")
			}

			if s.cfg.Auth.Shibboleth.Enabled && s.cfg.Auth.Shibboleth.LogoutURL != "" {
				target = s.cfg.Auth.Shibboleth.LogoutURL
			}
		}

		if tok != nil {
			log.Info().Str("login", tok.LoginIdentity).Msg("logout")
		}
	}

	handler.SetCookies(c, s.cfg, []auth.Cookie{auth.ClearCookie(auth.CookieToken)})

	return c.Redirect(target)
}
