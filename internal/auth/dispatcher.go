package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Messages shown on the credential form.
const (
	MsgLoginFailed   = "Login failed"
	MsgServerTimeout = "Unable to contact the authentication server, please try again later"
)

// State is a state of the login flow.
type State int

// Login flow states.
const (
	StateAnonymousSelecting State = iota
	StateRedirected
	StateShowingCredentialForm
	StateCredentialsSubmitted
	StateAuthenticated
	StateRejected
	StateServerTimeout
)

func (s State) String() string {
	switch s {
	case StateAnonymousSelecting:
		return "anonymous_selecting"
	case StateRedirected:
		return "redirected"
	case StateShowingCredentialForm:
		return "showing_credential_form"
	case StateCredentialsSubmitted:
		return "credentials_submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	case StateServerTimeout:
		return "server_timeout"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LoginRequest is everything the login page received.
type LoginRequest struct {
	// MechanismKey is the explicitly selected mechanism.
	MechanismKey string
	// RememberedKey is the value of the selection cookie.
	RememberedKey string
	// ClearSelection forgets the remembered mechanism.
	ClearSelection bool
	// Remember stores MechanismKey in the selection cookie.
	Remember bool
	// Submitted is set when the credential form was posted.
	Submitted bool
	UserID    string
	Password  string
	RemoteIP  string
}

// Result is the terminal state of one login step.
type Result struct {
	State   State
	Outcome Outcome
	Cookies []Cookie
}

// DirectoryAuthenticator verifies credentials against a directory. *LDAPAuthenticator satisfies it.
type DirectoryAuthenticator interface {
	Authenticate(ctx context.Context, m *DirectoryMechanism, userid, password string) (*models.User, error)
}

// PasswordAuthenticator verifies credentials against the local store. *LocalAuthenticator satisfies it.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, userid, password string) (*models.User, error)
}

// Dispatcher drives the login flow.
type Dispatcher struct {
	registry    *Registry
	directory   DirectoryAuthenticator
	local       PasswordAuthenticator
	establisher *SessionEstablisher
	audit       *AuditLogger
	now         func() time.Time
}

// NewDispatcher creates a new login dispatcher.
func NewDispatcher(
	registry *Registry,
	directory DirectoryAuthenticator,
	local PasswordAuthenticator,
	establisher *SessionEstablisher,
	audit *AuditLogger,
) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		directory:   directory,
		local:       local,
		establisher: establisher,
		audit:       audit,
		now:         time.Now,
	}
}

// Dispatch runs one step of the login flow. Errors are internal failures,
// every user facing result is carried in Result.
func (d *Dispatcher) Dispatch(ctx context.Context, req LoginRequest) (*Result, error) {
	res := &Result{}

	remembered := req.RememberedKey
	if req.ClearSelection {
		res.Cookies = append(res.Cookies, ClearCookie(CookieSelection))
		remembered = ""
	}

	key := req.MechanismKey
	if key == "" {
		key = remembered
	}

	m, ok := d.registry.Lookup(key)
	if !ok {
		if key != "" && key == remembered {
			res.Cookies = append(res.Cookies, ClearCookie(CookieSelection))
		}

		return d.selecting(res, ""), nil
	}

	if req.Remember && req.MechanismKey != "" {
		res.Cookies = append(res.Cookies, SelectionCookie(req.MechanismKey, d.now()))
	}

	switch m := m.(type) {
	case *RedirectMechanism:
		target, err := m.Target(ctx)
		if err != nil {
			return nil, err
		}

		res.State = StateRedirected
		res.Outcome = Redirect{URL: target}

		return res, nil
	case *DirectoryMechanism, *LocalMechanism:
		if !req.Submitted {
			return d.credentialForm(res, m, StateShowingCredentialForm, ""), nil
		}

		if req.UserID == "" || req.Password == "" {
			return d.selecting(res, ""), nil
		}

		return d.submit(ctx, res, m, req)
	default:
		return nil, fmt.Errorf("%w: unsupported mechanism type %T", ErrConfiguration, m)
	}
}

func (d *Dispatcher) selecting(res *Result, msg string) *Result {
	res.State = StateAnonymousSelecting
	res.Outcome = RenderPage{
		Page: PageSelect,
		Data: map[string]any{
			"Mechanisms": d.registry.All(),
			"Error":      msg,
		},
	}

	return res
}

func (d *Dispatcher) credentialForm(res *Result, m Mechanism, state State, msg string) *Result {
	res.State = state
	res.Outcome = RenderPage{
		Page: PageCredentials,
		Data: map[string]any{
			"Mechanism": m.Key(),
			"Help":      m.Help(),
			"Error":     msg,
		},
	}

	return res
}

// submit is the CredentialsSubmitted state.
func (d *Dispatcher) submit(ctx context.Context, res *Result, m Mechanism, req LoginRequest) (*Result, error) {
	var (
		user *models.User
		err  error
	)

	switch m := m.(type) {
	case *DirectoryMechanism:
		user, err = d.directory.Authenticate(ctx, m, req.UserID, req.Password)
	case *LocalMechanism:
		user, err = d.local.Authenticate(ctx, req.UserID, req.Password)
	default:
		return nil, fmt.Errorf("%w: %T takes no credentials", ErrConfiguration, m)
	}

	switch {
	case errors.Is(err, ErrServerTimeout):
		log.Warn().Err(err).Str("mechanism", m.Key()).Msg("directory unreachable")

		return d.credentialForm(res, m, StateServerTimeout, MsgServerTimeout), nil
	case errors.Is(err, ErrCredentialsInvalid):
		log.Debug().Err(err).Str("mechanism", m.Key()).Str("userid", req.UserID).Msg("login rejected")

		if errAudit := d.audit.Record(ctx, Attempt{
			Login:         req.UserID,
			Mechanism:     m.Key(),
			AffiliationID: m.Affiliation().ID,
			Code:          auditCode(err),
			RemoteIP:      req.RemoteIP,
		}); errAudit != nil {
			return nil, errAudit
		}

		return d.credentialForm(res, m, StateRejected, MsgLoginFailed), nil
	case err != nil:
		return nil, err
	}

	sess, err := d.establisher.Establish(ctx, user, m.Key(), req.RemoteIP, 0)
	if err != nil {
		return nil, err
	}

	res.State = StateAuthenticated
	res.Outcome = Established{Session: sess}
	res.Cookies = append(res.Cookies, sess.Cookies...)

	return res, nil
}
