package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-ldap/ldap/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/controller/semaphore"
	"github.com/GoVCL/GoVCL/internal/db/dsn"
	"github.com/GoVCL/GoVCL/internal/db/models"
	"github.com/GoVCL/GoVCL/internal/logger/adapter/stdlogger"
	"github.com/GoVCL/GoVCL/internal/web"
	"github.com/GoVCL/GoVCL/internal/web/handler"
	"github.com/GoVCL/GoVCL/internal/web/session"
)

// slowQuery is logged as a warning by gorm.
const slowQuery = 500 * time.Millisecond

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	states     fiber.Storage
}

// Start serves until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	defer func() {
		if err := d.states.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close state storage")
		}
	}()

	go d.webService.WaitShutdown()

	return d.webService.Start()
}

// OpenDB opens the configured database engine.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL, "":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		dialector = postgres.Open(dsn.CreatePostgres(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(cfg.DB.Name)
	default:
		return nil, fmt.Errorf("unsupported gorm engine %q", cfg.DB.GormEngine)
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.NewComponent("gorm"), gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// Prepare opens the database, migrates the schema and seeds it.
func Prepare(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err = Seed(ctx, db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Wire builds the login components on top of db.
func Wire(ctx context.Context, cfg *config.Config, db *gorm.DB, keys *auth.KeyPair, states auth.StateStore) (*handler.Deps, error) {
	if cfg == nil || db == nil || keys == nil {
		return nil, errors.New("config, db or keys is nil")
	}

	registry, err := auth.BuildRegistry(ctx, db, cfg.Auth.Mechanisms, states)
	if err != nil {
		return nil, err
	}

	sessions := auth.NewShibSessions(db)

	codec, err := auth.NewTokenCodec(keys, cfg.Auth.TokenFormat, sessions)
	if err != nil {
		return nil, err
	}

	var secrets auth.SecretKeyChecker
	if cfg.Auth.SecretKeys.Enabled {
		secrets = auth.NewSecretKeyStore(db, cfg.Auth.SecretKeys.SigningKeyID)
	}

	audit := auth.NewAuditLogger(db, secrets)
	establisher := auth.NewSessionEstablisher(
		codec, audit, time.Duration(cfg.Auth.ValidityMinutes)*time.Minute, cfg.Auth.EntryPoint)

	deps := &handler.Deps{
		Auth:        &auth.AuthContext{Keys: keys, Registry: registry, Codec: codec},
		Dispatcher:  auth.NewDispatcher(registry, auth.NewLDAPAuthenticator(db), auth.NewLocalAuthenticator(db), establisher, audit),
		Establisher: establisher,
		Audit:       audit,
		Sessions:    sessions,
		States:      states,
	}

	if sh := cfg.Auth.Shibboleth; sh.Enabled {
		deps.Shibboleth = auth.NewShibbolethLogin(db, sh.MechanismKey, sh.ScopeMap, sessions, establisher, audit)
	}

	if !cfg.Auth.Demo.Disabled {
		deps.Guard = auth.NewDemoGuard(db, semaphore.New(db), nil, cfg.Auth.Demo.NoDemoAffiliation, cfg.Auth.EntryPoint)
	}

	log.Info().
		Int("mechanisms", registry.Len()).
		Str("token_format", cfg.Auth.TokenFormat).
		Bool("shibboleth", deps.Shibboleth != nil).
		Bool("demo_guard", deps.Guard != nil).
		Msg("login components ready")

	return deps, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Log.LDAPDebug {
		ldap.Logger(stdlogger.NewComponent("ldap").Std())
	}

	db, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}

	keys, err := auth.LoadKeyPair(cfg.Auth.PrivateKeyFile, cfg.Auth.PublicKeyFile)
	if err != nil {
		return nil, err
	}

	states := session.New(cfg)

	deps, err := Wire(ctx, cfg, db, keys, states)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, db, deps)
	if err != nil {
		return nil, err
	}

	return &Daemon{webService: webService, states: states}, nil
}
