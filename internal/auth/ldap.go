package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

const (
	// DefaultDirectoryPort is used when a directory mechanism has no port.
	DefaultDirectoryPort = 636

	// PreflightTimeout bounds the raw tcp connect made before any bind.
	PreflightTimeout = 5 * time.Second

	lookupSizeLimit = 3
	lookupTimeLimit = 15 // seconds

	defaultDirectoryTimeout = 10 * time.Second
)

// Dialer opens the preflight connection. net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// LDAPAuthenticator checks credentials by binding to a directory server.
type LDAPAuthenticator struct {
	db     *gorm.DB
	dialer Dialer
	now    func() time.Time
}

// NewLDAPAuthenticator creates a new LDAP authenticator.
func NewLDAPAuthenticator(db *gorm.DB) *LDAPAuthenticator {
	return &LDAPAuthenticator{
		db:     db,
		dialer: &net.Dialer{Timeout: PreflightTimeout},
		now:    time.Now,
	}
}

func address(m *DirectoryMechanism) string {
	port := m.Port
	if port == 0 {
		port = DefaultDirectoryPort
	}

	return net.JoinHostPort(m.Server, strconv.Itoa(port))
}

// Preflight checks that the directory accepts tcp connections within PreflightTimeout.
func (p *LDAPAuthenticator) Preflight(ctx context.Context, m *DirectoryMechanism) error {
	ctx, cancel := context.WithTimeout(ctx, PreflightTimeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", address(m))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrServerTimeout, address(m), err)
	}

	if errClose := conn.Close(); errClose != nil {
		log.Debug().Err(errClose).Msg("failed to close preflight connection")
	}

	return nil
}

// Connect establishes a connection to the directory server.
func (p *LDAPAuthenticator) Connect(m *DirectoryMechanism) (*ldap.Conn, error) {
	scheme := "ldap://"

	var tlsConfig *tls.Config

	if m.UseSSL {
		scheme = "ldaps://"
		tlsConfig = &tls.Config{
			InsecureSkipVerify: m.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         m.Server,
		}
	}

	conn, err := ldap.DialURL(scheme+address(m),
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: PreflightTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerTimeout, err)
	}

	timeout := m.Timeout
	if timeout == 0 {
		timeout = defaultDirectoryTimeout
	}

	conn.SetTimeout(timeout)

	return conn, nil
}

// Authenticate verifies userid/password against the directory of m and refreshes
// the local user row. It returns ErrServerTimeout without binding when the
// server is unreachable, and a *RejectedError when the credentials are refused.
func (p *LDAPAuthenticator) Authenticate(ctx context.Context, m *DirectoryMechanism, userid, password string) (*models.User, error) {
	if err := p.Preflight(ctx, m); err != nil {
		return nil, err
	}

	conn, err := p.Connect(m)
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	userDN, entry, err := p.resolveDN(conn, m, userid)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(userDN, password); err != nil {
		rejected := reject(fmt.Errorf("bind %s: %w", userDN, err))
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			rejected.Code = models.LoginCodeInvalidCredentials
		}

		return nil, rejected
	}

	var profile Profile
	if entry != nil {
		profile = profileOf(entry, m)
	} else {
		profile = p.readProfile(conn, m, userDN)
	}

	return UpsertUser(ctx, p.db, userid, m.Affiliation(), profile, p.now())
}

// resolveDN returns the DN to bind as. With a lookup configured the directory
// is searched and the matching entry is returned as well.
func (p *LDAPAuthenticator) resolveDN(conn *ldap.Conn, m *DirectoryMechanism, userid string) (string, *ldap.Entry, error) {
	if m.Lookup == nil {
		return strings.ReplaceAll(m.BindTemplate, "%s", ldap.EscapeDN(userid)), nil, nil
	}

	if err := p.bindMaster(conn, m.Lookup); err != nil {
		return "", nil, reject(err)
	}

	entry, err := p.searchUserEntry(conn, m, userid)
	if err != nil {
		return "", nil, reject(err)
	}

	return entry.DN, entry, nil
}

func (p *LDAPAuthenticator) bindMaster(conn *ldap.Conn, l *DirectoryLookup) error {
	if l.MasterLogin == "" {
		if err := conn.UnauthenticatedBind(""); err != nil {
			return fmt.Errorf("anonymous bind: %w", err)
		}

		return nil
	}

	if err := conn.Bind(l.MasterLogin, l.MasterPassword); err != nil {
		return fmt.Errorf("failed to bind with lookup account: %w", err)
	}

	return nil
}

func (p *LDAPAuthenticator) attributes(m *DirectoryMechanism) []string {
	attrs := []string{"dn"}

	for _, a := range []string{m.FirstNameAttr, m.LastNameAttr, m.EmailAttr} {
		if a != "" {
			attrs = append(attrs, a)
		}
	}

	return attrs
}

// searchUserEntry searches for userid and returns a single entry.
func (p *LDAPAuthenticator) searchUserEntry(conn *ldap.Conn, m *DirectoryMechanism, userid string) (*ldap.Entry, error) {
	filter := fmt.Sprintf("(%s=%s)", m.Lookup.SearchField, ldap.EscapeFilter(userid))

	searchRequest := ldap.NewSearchRequest(
		m.Lookup.SearchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		lookupSizeLimit,
		lookupTimeLimit,
		false,
		filter,
		p.attributes(m),
		nil,
	)

	result, err := conn.Search(searchRequest)

	switch {
	case err == nil, ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded):
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	if result == nil {
		return nil, ErrUserNotFound
	}

	switch len(result.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return result.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// readProfile reads the name and email attributes of dn. Failures leave the profile empty.
func (p *LDAPAuthenticator) readProfile(conn *ldap.Conn, m *DirectoryMechanism, dn string) Profile {
	if m.FirstNameAttr == "" && m.LastNameAttr == "" && m.EmailAttr == "" {
		return Profile{}
	}

	result, err := conn.Search(ldap.NewSearchRequest(
		dn,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1,
		lookupTimeLimit,
		false,
		"(objectClass=*)",
		p.attributes(m),
		nil,
	))
	if err != nil || len(result.Entries) != 1 {
		if err == nil {
			err = errors.New("entry not readable")
		}

		log.Warn().Err(err).Str("dn", dn).Msg("failed to read directory attributes")

		return Profile{}
	}

	return profileOf(result.Entries[0], m)
}

func profileOf(e *ldap.Entry, m *DirectoryMechanism) Profile {
	return Profile{
		FirstName: attr(e, m.FirstNameAttr),
		LastName:  attr(e, m.LastNameAttr),
		Email:     attr(e, m.EmailAttr),
	}
}

func attr(e *ldap.Entry, name string) string {
	if name == "" {
		return ""
	}

	return e.GetAttributeValue(name)
}
