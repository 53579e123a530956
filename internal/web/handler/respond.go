package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
)

// SetCookies translates cookie instructions into response cookies.
// Cookies are scoped to the configured domain and are secure outside dev mode.
func SetCookies(c *fiber.Ctx, cfg *config.Config, cookies []auth.Cookie) {
	for _, ck := range cookies {
		fc := &fiber.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     RootPath,
			Domain:   cfg.Webserver.Domain,
			Expires:  ck.Expires,
			Secure:   !cfg.DevMode,
			HTTPOnly: ck.HTTPOnly,
			SameSite: fiber.CookieSameSiteLaxMode,
		}

		if ck.Clear {
			fc.Value = ""
			fc.Expires = time.Now().Add(-24 * time.Hour)
		}

		c.Cookie(fc)
	}
}

// Respond sets cookies and performs the terminal action of out.
func Respond(c *fiber.Ctx, cfg *config.Config, out auth.Outcome, cookies []auth.Cookie) error {
	SetCookies(c, cfg, cookies)

	switch o := out.(type) {
	case auth.Redirect:
		return c.Redirect(o.URL)
	case auth.Established:
		return c.Redirect(o.Session.RedirectURL)
	case auth.RenderPage:
		return Render(c, cfg, string(o.Page), o.Data)
	default:
		return fmt.Errorf("unhandled outcome %T", out)
	}
}

// Render renders page inside the base layout. data is copied, Title is added.
func Render(c *fiber.Ctx, cfg *config.Config, page string, data map[string]any) error {
	m := make(fiber.Map, len(data)+1)
	for k, v := range data {
		m[k] = v
	}

	m["Title"] = cfg.Title

	return c.Render(page, m, BaseLayout)
}

// IsAPI reports whether the request expects a JSON answer.
func IsAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), APIPrefix) || c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest"
}
