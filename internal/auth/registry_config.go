package auth

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/config"
)

// BuildRegistry turns the configured mechanisms into a Registry. Affiliations
// are created when missing, OIDC providers are discovered.
func BuildRegistry(ctx context.Context, db *gorm.DB, mechs []config.Mechanism, states StateStore) (*Registry, error) {
	out := make([]Mechanism, 0, len(mechs))

	for _, mc := range mechs {
		aff, err := EnsureAffiliation(ctx, db, mc.Affiliation)
		if err != nil {
			return nil, err
		}

		common := Common{ID: mc.Key, HelpText: mc.Help, Aff: *aff}

		switch mc.Kind {
		case config.KindRedirect:
			m := &RedirectMechanism{Common: common, URL: mc.RedirectURL}

			if mc.OIDC != nil {
				provider, errProvider := NewOIDCProvider(ctx, mc.Key, *aff, OIDCConfig{
					ProviderURL:  mc.OIDC.ProviderURL,
					ClientID:     mc.OIDC.ClientID,
					ClientSecret: mc.OIDC.ClientSecret,
					RedirectURL:  mc.OIDC.RedirectURL,
					Scopes:       mc.OIDC.Scopes,
				}, db, states)
				if errProvider != nil {
					return nil, fmt.Errorf("mechanism %q: %w", mc.Key, errProvider)
				}

				m.Provider = provider
			}

			out = append(out, m)
		case config.KindDirectory:
			d := mc.Directory
			if d == nil {
				return nil, fmt.Errorf("%w: mechanism %q has no directory block", ErrConfiguration, mc.Key)
			}

			m := &DirectoryMechanism{
				Common:        common,
				Server:        d.Server,
				Port:          d.Port,
				UseSSL:        d.UseSSL,
				SkipVerify:    d.SkipVerify,
				BindTemplate:  d.BindTemplate,
				FirstNameAttr: d.FirstNameAttr,
				LastNameAttr:  d.LastNameAttr,
				EmailAttr:     d.EmailAttr,
				Timeout:       time.Duration(d.Timeout) * time.Second,
			}

			if d.Lookup != nil {
				m.Lookup = &DirectoryLookup{
					SearchBase:     d.Lookup.SearchBase,
					SearchField:    d.Lookup.SearchField,
					MasterLogin:    d.Lookup.MasterLogin,
					MasterPassword: d.Lookup.MasterPassword,
				}
			}

			out = append(out, m)
		case config.KindLocal:
			out = append(out, &LocalMechanism{Common: common})
		default:
			return nil, fmt.Errorf("%w: mechanism %q has kind %q", ErrUnknownMechanism, mc.Key, mc.Kind)
		}
	}

	return NewRegistry(out...)
}
