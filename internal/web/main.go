package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/config"
	fiberlogger "github.com/GoVCL/GoVCL/internal/logger/adapter/fiber"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/handler/api"
	oidchandler "github.com/GoVCL/GoVCL/internal/web/handler/auth/oidc"
	"github.com/GoVCL/GoVCL/internal/web/handler/home"
	"github.com/GoVCL/GoVCL/internal/web/handler/login"
	"github.com/GoVCL/GoVCL/internal/web/handler/logout"
	"github.com/GoVCL/GoVCL/internal/web/handler/shibauth"
	"github.com/GoVCL/GoVCL/internal/web/middleware/token"
)

const (
	// CheckAlivePath answers 503 while the service drains.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus registry.
	MetricsPath = "/metrics"
	// StaticPath serves the embedded static files.
	StaticPath = "/static"
)

// publicPrefixes are served without an auth token.
var publicPrefixes = []string{ //nolint:gochecknoglobals
	handler.LoginPath,
	logout.Path,
	shibauth.Path,
	oidchandler.CallbackPath,
	CheckAlivePath,
	MetricsPath,
	StaticPath,
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the configured port.
func (s *Service) Start() error {
	var doneFiber = make(chan error)

	go func() {
		err := s.App.Listen(":" + strconv.Itoa(s.cfg.Webserver.Port))
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		doneFiber <- err
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the service down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown drains and stops the http server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers the load balancer health check.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// isPublic reports whether the request path is one of publicPrefixes or lies below one.
// Routing is case sensitive, so is the match.
func isPublic(c *fiber.Ctx) bool {
	return isPublicPath(c.Path())
}

func isPublicPath(path string) bool {
	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, deps *handler.Deps) (*Service, error) {
	if cfg == nil || db == nil || deps == nil {
		return nil, errors.New(handler.ErrNilACDFatalLogMsg)
	}

	templateEngine := html.NewFileSystem(subFS(embeddedTemplates, "templates"), ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.Reload(true)

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize:     8192,
			AppName:            "GoVCL",
			CaseSensitive:      true,
			Prefork:            false,
			Immutable:          true,
			Views:              templateEngine,
			ProxyHeader:        cfg.Webserver.ProxyHeader,
			EnableIPValidation: true,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		IdentityLocal: token.LocalsLogin,
	}))

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// serve embedded static files
	app.Use(StaticPath,
		filesystem.New(
			filesystem.Config{
				Root: subFS(embeddedStaticFiles, "static"),
			},
		),
	)

	app.Use(token.New(token.Config{
		Next: isPublic,
		App:  cfg,
		DB:   db,
		Deps: deps,
	}))

	for _, h := range []handler.Service{
		&login.Handler,
		&logout.Handler,
		&shibauth.Handler,
		&oidchandler.Handler,
		&home.Handler,
		&api.Handler,
	} {
		if err := h.Init(app, cfg, db, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}
