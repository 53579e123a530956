package token

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
)

// fiber.Locals keys set for authenticated requests.
const (
	LocalsLogin = "login"
	LocalsUser  = "user"
)

// MsgAuthRequired is the JSON error of API requests without a usable token.
const MsgAuthRequired = "authentication required"

// Config of the middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	App  *config.Config
	DB   *gorm.DB
	Deps *handler.Deps

	// Now is the clock used to check expiry.
	//
	// Optional. Default: time.Now
	Now func() time.Time
}

// New creates the token middleware.
func New(cfg Config) fiber.Handler {
	if cfg.App == nil || cfg.DB == nil || cfg.Deps == nil || cfg.Deps.Auth == nil {
		panic(handler.ErrNilACDFatalLogMsg)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		ctx := c.UserContext()

		value := c.Cookies(auth.CookieToken)
		if value == "" {
			return reauth(c, cfg, handler.LoginPath, false)
		}

		tok, err := cfg.Deps.Auth.Codec.Decode(ctx, value, c.IP(), cfg.Now())
		if err != nil {
			if !auth.IsReauth(err) {
				log.Error().Err(err).Msg("failed to check auth token")

				return fiber.ErrInternalServerError
			}

			log.Debug().Err(err).Str("remote_ip", c.IP()).Msg("auth token refused")

			// a revoked federated session is a forced logout
			if errors.Is(err, auth.ErrShibSessionInvalid) {
				return reauth(c, cfg, cfg.Deps.Establisher.EntryPoint(), true)
			}

			return reauth(c, cfg, handler.LoginPath, true)
		}

		user, err := auth.UserByLoginIdentity(ctx, cfg.DB, tok.LoginIdentity)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				log.Warn().Str("login", tok.LoginIdentity).Msg("token for unknown user")

				return reauth(c, cfg, handler.LoginPath, true)
			}

			log.Error().Err(err).Str("login", tok.LoginIdentity).Msg("failed to load user")

			return fiber.ErrInternalServerError
		}

		c.Locals(LocalsLogin, tok.LoginIdentity)
		c.Locals(LocalsUser, user)

		if cfg.Deps.Guard != nil {
			out, errGuard := cfg.Deps.Guard.Check(ctx, user.ID, handler.IsAPI(c))
			if errGuard != nil {
				log.Error().Err(errGuard).Str("login", tok.LoginIdentity).Msg("demo check failed")

				return fiber.ErrInternalServerError
			}

			if out != nil {
				return handler.Respond(c, cfg.App, out, nil)
			}
		}

		return c.Next()
	}
}

// User returns the authenticated user of c, nil outside the middleware.
func User(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(LocalsUser).(*models.User)

	return u
}

func reauth(c *fiber.Ctx, cfg Config, target string, clearCookie bool) error {
	var cookies []auth.Cookie
	if clearCookie {
		cookies = append(cookies, auth.ClearCookie(auth.CookieToken))
	}

	if handler.IsAPI(c) {
		handler.SetCookies(c, cfg.App, cookies)

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": MsgAuthRequired})
	}

	return handler.Respond(c, cfg.App, auth.Redirect{URL: target}, cookies)
}
