package oidc

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
)

// CallbackPath is the path for OIDC callback.
const CallbackPath = handler.RootPath + "auth/oidc/callback"

// unknownLogin is recorded for failed callbacks, the provider never told us who it was.
const unknownLogin = "-"

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil || deps.Auth == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if deps.States == nil {
		return errors.New("oidc callback needs a state store")
	}

	s.cfg = cfg
	s.deps = deps

	app.Get(CallbackPath, s.Callback)

	return nil
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	key, err := auth.ConsumeOIDCState(s.deps.States, c.Query("state"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidState) {
			log.Warn().Msg("oidc callback with unknown or expired state")

			return c.Redirect(handler.LoginPath)
		}

		log.Error().Err(err).Msg("failed to read oidc state")

		return fiber.ErrInternalServerError
	}

	provider, mech, ok := s.provider(key)
	if !ok {
		log.Error().Str("mechanism", key).Msg("oidc state names no oidc mechanism")

		return c.Redirect(handler.LoginPath)
	}

	if reason := c.Query("error"); reason != "" {
		log.Info().Str("mechanism", key).Str("error", reason).Msg("oidc provider refused the login")

		return s.reject(c, mech)
	}

	user, sessID, err := provider.HandleCallback(ctx, c.Query("code"))

	switch {
	case errors.Is(err, auth.ErrCredentialsInvalid):
		log.Info().Err(err).Str("mechanism", key).Msg("oidc login rejected")

		return s.reject(c, mech)
	case err != nil:
		log.Error().Err(err).Str("mechanism", key).Msg("oidc login failed internally")

		return fiber.ErrInternalServerError
	}

	id, err := s.deps.Sessions.Create(ctx, sessID, auth.SourceOIDC)
	if err != nil {
		log.Error().Err(err).Msg("failed to create federated session")

		return fiber.ErrInternalServerError
	}

	sess, err := s.deps.Establisher.Establish(ctx, user, key, c.IP(), id)
	if err != nil {
		log.Error().Err(err).Str("login", user.LoginIdentity()).Msg("failed to establish session")

		return fiber.ErrInternalServerError
	}

	log.Info().Str("login", user.LoginIdentity()).Msg("user logged in via oidc")

	return handler.Respond(c, s.cfg, auth.Established{Session: sess}, sess.Cookies)
}

// provider resolves the OIDC provider of mechanism key.
func (s *Service) provider(key string) (*auth.OIDCProvider, auth.Mechanism, bool) {
	m, ok := s.deps.Auth.Registry.Lookup(key)
	if !ok {
		return nil, nil, false
	}

	rm, ok := m.(*auth.RedirectMechanism)
	if !ok {
		return nil, nil, false
	}

	p, ok := rm.Provider.(*auth.OIDCProvider)

	return p, m, ok
}

func (s *Service) reject(c *fiber.Ctx, m auth.Mechanism) error {
	if err := s.deps.Audit.Record(c.UserContext(), auth.Attempt{
		Login:         unknownLogin,
		Mechanism:     m.Key(),
		AffiliationID: m.Affiliation().ID,
		Code:          models.LoginCodeInvalidCredentials,
		RemoteIP:      c.IP(),
	}); err != nil {
		log.Error().Err(err).Msg("failed to audit oidc login")

		return fiber.ErrInternalServerError
	}

	c.Status(fiber.StatusForbidden)

	return handler.Render(c, s.cfg, handler.PageError, fiber.Map{"Error": auth.MsgLoginFailed})
}
