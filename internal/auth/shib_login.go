package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// unknownLogin is audited when the assertion names nobody.
const unknownLogin = "-"

// ShibAssertion is what the Shibboleth service provider asserted about a user.
type ShibAssertion struct {
	EPPN      string `validate:"required,contains=@,excludesall=0x7C"`
	SessionID string `validate:"required"`
	GivenName string
	Surname   string
	Mail      string
}

// ShibbolethLogin establishes sessions from Shibboleth assertions.
type ShibbolethLogin struct {
	db          *gorm.DB
	mechanism   string
	scopes      map[string]string
	sessions    *ShibSessions
	establisher *SessionEstablisher
	audit       *AuditLogger
	validate    *validator.Validate
}

// NewShibbolethLogin creates a Shibboleth login. scopes maps eppn scopes to affiliation names.
func NewShibbolethLogin(
	db *gorm.DB,
	mechanism string,
	scopes map[string]string,
	sessions *ShibSessions,
	establisher *SessionEstablisher,
	audit *AuditLogger,
) *ShibbolethLogin {
	lower := make(map[string]string, len(scopes))
	for scope, aff := range scopes {
		lower[strings.ToLower(scope)] = aff
	}

	return &ShibbolethLogin{
		db:          db,
		mechanism:   mechanism,
		scopes:      lower,
		sessions:    sessions,
		establisher: establisher,
		audit:       audit,
		validate:    validator.New(),
	}
}

// Login upserts the asserted user and returns a session bound to a new federated session row.
func (s *ShibbolethLogin) Login(ctx context.Context, a ShibAssertion, remoteIP string) (*Session, error) {
	i := strings.LastIndex(a.EPPN, "@")

	err := s.validate.Struct(a)
	if err == nil && i <= 0 {
		err = errors.New("eppn has no user part")
	}

	if err != nil {
		if errAudit := s.rejected(ctx, a.EPPN, remoteIP); errAudit != nil {
			return nil, errAudit
		}

		return nil, reject(fmt.Errorf("%w for %q: %w", ErrIncompleteAssertion, a.EPPN, err))
	}

	unityID, scope := a.EPPN[:i], strings.ToLower(a.EPPN[i+1:])

	affName, ok := s.scopes[scope]
	if !ok {
		if err = s.rejected(ctx, a.EPPN, remoteIP); err != nil {
			return nil, err
		}

		return nil, reject(fmt.Errorf("no affiliation for eppn scope %q", scope))
	}

	aff, err := EnsureAffiliation(ctx, s.db, affName)
	if err != nil {
		return nil, err
	}

	user, err := UpsertUser(ctx, s.db, unityID, *aff, Profile{
		FirstName: a.GivenName,
		LastName:  a.Surname,
		Email:     a.Mail,
	}, s.establisher.now())
	if err != nil {
		return nil, err
	}

	id, err := s.sessions.Create(ctx, a.SessionID, SourceShibboleth)
	if err != nil {
		return nil, err
	}

	return s.establisher.Establish(ctx, user, s.mechanism, remoteIP, id)
}

// rejected audits a refused assertion under the raw eppn.
func (s *ShibbolethLogin) rejected(ctx context.Context, eppn, remoteIP string) error {
	login := eppn
	if login == "" {
		login = unknownLogin
	}

	if len(login) > maxAuditLogin {
		login = login[:maxAuditLogin]
	}

	return s.audit.Record(ctx, Attempt{Login: login, Mechanism: s.mechanism, RemoteIP: remoteIP})
}
