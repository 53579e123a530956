// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/GoVCL/GoVCL/internal/config"
)

// Create builds the mysql Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.Extras,
	)

	return out
}

// CreatePostgres builds a libpq keyword/value DSN. Extras is appended verbatim,
// e.g. "sslmode=disable TimeZone=UTC".
func CreatePostgres(cfg *config.Config) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
	)

	if extras := strings.TrimSpace(cfg.DB.Extras); extras != "" {
		out += " " + extras
	}

	return out
}

// CreatePostgresURI builds a postgres:// URI, the form expected by the fiber storage driver.
func CreatePostgresURI(cfg *config.Config) string {
	out := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
	)

	if cfg.DB.Extras != "" {
		out += "?" + strings.ReplaceAll(strings.TrimSpace(cfg.DB.Extras), " ", "&")
	}

	return out
}
