package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Mechanism is one configured way of logging in. The set of implementations
// is closed: *RedirectMechanism, *DirectoryMechanism and *LocalMechanism.
type Mechanism interface {
	Key() string
	Help() string
	Affiliation() models.Affiliation

	sealed()
}

// Common holds the fields every mechanism shares.
type Common struct {
	ID       string
	HelpText string
	// Aff must carry a database id, see Registry builders.
	Aff models.Affiliation
}

// Key returns the mechanism key shown on the selection page and stored in the login log.
func (c Common) Key() string { return c.ID }

// Help returns the text shown next to the credential form.
func (c Common) Help() string { return c.HelpText }

// Affiliation returns the affiliation users of this mechanism belong to.
func (c Common) Affiliation() models.Affiliation { return c.Aff }

func (Common) sealed() {}

// Redirector computes the external login URL of a redirect mechanism.
type Redirector interface {
	AuthURL(ctx context.Context) (string, error)
}

// RedirectMechanism sends the browser to an external login page.
type RedirectMechanism struct {
	Common
	URL string
	// Provider overrides URL when set.
	Provider Redirector
}

// Target returns the URL to redirect to.
func (m *RedirectMechanism) Target(ctx context.Context) (string, error) {
	if m.Provider != nil {
		return m.Provider.AuthURL(ctx)
	}

	if m.URL == "" {
		return "", fmt.Errorf("%w: mechanism %q has no redirect url", ErrConfiguration, m.ID)
	}

	return m.URL, nil
}

// DirectoryLookup enables search-then-bind.
type DirectoryLookup struct {
	SearchBase  string
	SearchField string
	// MasterLogin empty means an anonymous bind.
	MasterLogin    string
	MasterPassword string
}

// DirectoryMechanism authenticates by binding to an LDAP server.
type DirectoryMechanism struct {
	Common
	Server     string
	Port       int
	UseSSL     bool
	SkipVerify bool
	// BindTemplate is used when Lookup is nil, "%s" is replaced by the escaped userid.
	BindTemplate  string
	Lookup        *DirectoryLookup
	FirstNameAttr string
	LastNameAttr  string
	EmailAttr     string
	// Timeout applies to ldap operations after the preflight.
	Timeout time.Duration
}

// LocalMechanism authenticates against the local password store.
type LocalMechanism struct {
	Common
}

// Registry is the ordered set of configured mechanisms.
type Registry struct {
	ordered []Mechanism
	byKey   map[string]Mechanism
}

// NewRegistry keeps mechs in the given order. Keys must be unique.
func NewRegistry(mechs ...Mechanism) (*Registry, error) {
	r := &Registry{
		ordered: make([]Mechanism, 0, len(mechs)),
		byKey:   make(map[string]Mechanism, len(mechs)),
	}

	for _, m := range mechs {
		if _, ok := r.byKey[m.Key()]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMechanism, m.Key())
		}

		r.ordered = append(r.ordered, m)
		r.byKey[m.Key()] = m
	}

	return r, nil
}

// Lookup returns the mechanism registered under key.
func (r *Registry) Lookup(key string) (Mechanism, bool) {
	if r == nil || key == "" {
		return nil, false
	}

	m, ok := r.byKey[key]

	return m, ok
}

// All returns the mechanisms in configuration order.
func (r *Registry) All() []Mechanism {
	if r == nil {
		return nil
	}

	out := make([]Mechanism, len(r.ordered))
	copy(out, r.ordered)

	return out
}

// Len returns the number of mechanisms.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.ordered)
}
