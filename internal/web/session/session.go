// Package session provides the short lived key/value storage behind the
// OIDC authorization state. The backend follows the database engine.
package session

import (
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"

	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/db/dsn"
)

// Table holds the stored states on mysql and postgres.
const Table = "web_states"

// New returns the storage matching the configured database engine.
// SQLite deployments are single process and keep states in memory.
func New(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineSQLite:
		return NewMemory()
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.CreatePostgresURI(cfg),
			Table:         Table,
		})
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         Table,
		})
	}
}
