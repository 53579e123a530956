// Package shibauth serves the Shibboleth entry point. The route sits behind
// the service provider, which asserts the user through request headers.
package shibauth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/web/handler"
)

// Path is the Shibboleth entry point.
const Path = handler.RootPath + "shibauth"

// Attribute headers besides the configured eppn and session headers.
const (
	HeaderGivenName = "givenName"
	HeaderSurname   = "sn"
	HeaderMail      = "mail"
)

// Service is the Shibboleth handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the Shibboleth handler.
var Handler = Service{}

// Init registers the entry point when Shibboleth is enabled.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if !cfg.Auth.Shibboleth.Enabled {
		log.Info().Msg("shibboleth entry point disabled")
		return nil
	}

	if deps.Shibboleth == nil {
		return errors.New("shibboleth enabled without a shibboleth login")
	}

	s.cfg = cfg
	s.deps = deps

	app.Get(Path, s.Login)

	return nil
}

// Login establishes a session from the asserted headers.
func (s *Service) Login(c *fiber.Ctx) error {
	sh := s.cfg.Auth.Shibboleth

	assertion := auth.ShibAssertion{
		EPPN:      c.Get(sh.EPPNHeader),
		SessionID: c.Get(sh.SessionHeader),
		GivenName: c.Get(HeaderGivenName),
		Surname:   c.Get(HeaderSurname),
		Mail:      c.Get(HeaderMail),
	}

	sess, err := s.deps.Shibboleth.Login(c.UserContext(), assertion, c.IP())

	switch {
	case errors.Is(err, auth.ErrIncompleteAssertion):
		log.Warn().Err(err).Str("eppn", assertion.EPPN).Msg("incomplete shibboleth assertion")

		c.Status(fiber.StatusBadRequest)

		return handler.Render(c, s.cfg, handler.PageError, fiber.Map{"Error": auth.MsgLoginFailed})
	case errors.Is(err, auth.ErrCredentialsInvalid):
		log.Info().Err(err).Str("eppn", assertion.EPPN).Msg("shibboleth login rejected")

		c.Status(fiber.StatusForbidden)

		return handler.Render(c, s.cfg, handler.PageError, fiber.Map{"Error": auth.MsgLoginFailed})
	case err != nil:
		log.Error().Err(err).Str("eppn", assertion.EPPN).Msg("shibboleth login failed internally")

		return fiber.ErrInternalServerError
	}

	return handler.Respond(c, s.cfg, auth.Established{Session: sess}, sess.Cookies)
}
