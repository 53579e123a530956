// Package api serves the JSON routes below /api/.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/middleware/token"
)

// WhoAmIPath answers who the token belongs to.
const WhoAmIPath = handler.APIPrefix + "whoami"

// Identity is the body of WhoAmIPath.
type Identity struct {
	Login       string   `json:"login"`
	UnityID     string   `json:"unityId"`
	Affiliation string   `json:"affiliation"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Groups      []string `json:"groups"`
}

// Service is the api handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the api handler.
var Handler = Service{}

// Init initializes the api handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, deps *handler.Deps) error {
	if app == nil || cfg == nil || db == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	app.Get(WhoAmIPath, s.WhoAmI)

	return nil
}

// WhoAmI returns the identity of the authenticated user.
func (s *Service) WhoAmI(c *fiber.Ctx) error {
	user := token.User(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": token.MsgAuthRequired})
	}

	groups, err := auth.GroupNames(c.UserContext(), s.db, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to read groups")

		return fiber.ErrInternalServerError
	}

	if groups == nil {
		groups = []string{}
	}

	return c.JSON(Identity{
		Login:       user.LoginIdentity(),
		UnityID:     user.UnityID,
		Affiliation: user.Affiliation.Name,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Groups:      groups,
	})
}
