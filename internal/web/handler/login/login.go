package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// Form and query fields.
	FieldMechanism      = "authtype"
	FieldRemember       = "remember"
	FieldClearSelection = "clearselection"
	FieldUserID         = "userid"
	FieldPassword       = "password"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil || deps.Dispatcher == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.deps = deps

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get shows the mechanism list, the credential form of the selected
// mechanism, or redirects to an external login page.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.dispatch(c, auth.LoginRequest{
		MechanismKey:   c.Query(FieldMechanism),
		ClearSelection: c.Query(FieldClearSelection) != "",
		Remember:       c.Query(FieldRemember) != "",
	})
}

// Post handles the credential form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	return s.dispatch(c, auth.LoginRequest{
		MechanismKey: c.FormValue(FieldMechanism),
		Remember:     c.FormValue(FieldRemember) != "",
		Submitted:    true,
		UserID:       c.FormValue(FieldUserID),
		Password:     c.FormValue(FieldPassword),
	})
}

func (s *Service) dispatch(c *fiber.Ctx, req auth.LoginRequest) error {
	req.RememberedKey = c.Cookies(auth.CookieSelection)
	req.RemoteIP = c.IP()

	res, err := s.deps.Dispatcher.Dispatch(c.UserContext(), req)
	if err != nil {
		log.Error().Err(err).Str("mechanism", req.MechanismKey).Msg("login failed internally")

		return fiber.ErrInternalServerError
	}

	log.Debug().
		Str("mechanism", req.MechanismKey).
		Stringer("state", res.State).
		Msg("login step")

	return handler.Respond(c, s.cfg, res.Outcome, res.Cookies)
}
