package home

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/middleware/token"
)

const (
	// Path is the path to the home page.
	Path = handler.RootPath

	// Page is the home template.
	Page = "home"
)

// Service is the home handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the home handler.
var Handler = Service{}

// Init initializes the home handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, s.Get)

	return nil
}

// Get renders the home page. Accounts left only in the nodemo group see the
// account expired notice instead, this is where api clients that triggered
// the eviction land.
func (s *Service) Get(c *fiber.Ctx) error {
	user := token.User(c)
	if user == nil {
		return c.Redirect(handler.LoginPath)
	}

	groups, err := auth.GroupNames(c.UserContext(), s.db, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to read groups")

		return fiber.ErrInternalServerError
	}

	if len(groups) == 1 && groups[0] == models.GroupNoDemo {
		page := auth.AccountExpiredPage()

		return handler.Render(c, s.cfg, string(page.Page), page.Data)
	}

	return handler.Render(c, s.cfg, Page, fiber.Map{
		"User":   user,
		"Login":  user.LoginIdentity(),
		"Groups": groups,
	})
}
