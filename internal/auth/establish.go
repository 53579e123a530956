package auth

import (
	"context"
	"time"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

// Session is the result of a successful login.
type Session struct {
	Token       *AuthToken
	User        *models.User
	Mechanism   string
	Cookies     []Cookie
	RedirectURL string
}

// SessionEstablisher mints the token of a freshly authenticated user and audits the login.
type SessionEstablisher struct {
	codec      *TokenCodec
	audit      *AuditLogger
	validity   time.Duration
	entryPoint string
	now        func() time.Time
}

// NewSessionEstablisher creates a new establisher. A zero validity means DefaultValidity,
// an empty entryPoint means "/".
func NewSessionEstablisher(codec *TokenCodec, audit *AuditLogger, validity time.Duration, entryPoint string) *SessionEstablisher {
	if entryPoint == "" {
		entryPoint = "/"
	}

	return &SessionEstablisher{
		codec:      codec,
		audit:      audit,
		validity:   validity,
		entryPoint: entryPoint,
		now:        time.Now,
	}
}

// Establish mints a token for user bound to remoteIP and, for federated logins,
// to shibSessionID. user.Affiliation must be loaded.
func (e *SessionEstablisher) Establish(
	ctx context.Context,
	user *models.User,
	mechanism, remoteIP string,
	shibSessionID uint64,
) (*Session, error) {
	now := e.now()

	token, err := e.codec.EncodeAt(now, user.LoginIdentity(), remoteIP, e.validity, shibSessionID)
	if err != nil {
		return nil, err
	}

	if err = e.audit.Record(ctx, Attempt{
		Login:         user.UnityID,
		Mechanism:     mechanism,
		AffiliationID: user.AffiliationID,
		Success:       true,
		RemoteIP:      remoteIP,
	}); err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		User:      user,
		Mechanism: mechanism,
		Cookies: []Cookie{
			TokenCookie(token),
			SkinCookie(user.Affiliation.ThemeOrDefault(), now),
		},
		RedirectURL: e.entryPoint,
	}, nil
}

// EntryPoint returns where established sessions are sent.
func (e *SessionEstablisher) EntryPoint() string {
	return e.entryPoint
}
