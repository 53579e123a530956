package config

import (
	"github.com/GoVCL/GoVCL/internal/logger"
)

// Mechanism kinds accepted in [[Auth.Mechanisms]].
const (
	KindRedirect  = "redirect"
	KindDirectory = "directory"
	KindLocal     = "local"
)

// Token wire formats accepted in Auth.TokenFormat.
const (
	TokenFormatPKCS1 = "pkcs1"
	TokenFormatJWT   = "jwt"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // cookie domain
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	ProxyHeader    string // header carrying the client ip when running behind a proxy, e.g. X-Forwarded-For
}

// Auth holds everything the login subsystem needs.
type Auth struct {
	PrivateKeyFile  string // PEM encoded RSA private key used to mint tokens
	PublicKeyFile   string // PEM encoded RSA public key, derived from the private key if empty
	TokenFormat     string // pkcs1 (default) or jwt
	ValidityMinutes int    // token lifetime, default 600
	EntryPoint      string // where a freshly authenticated user is sent, default "/"
	Mechanisms      []Mechanism
	Shibboleth      Shibboleth
	Demo            Demo
	SecretKeys      SecretKeys
}

// Mechanism is one configured way of logging in.
type Mechanism struct {
	Key         string `validate:"required,excludesall=0x7C"`
	Kind        string `validate:"required,oneof=redirect directory local"`
	Affiliation string `validate:"required"`
	Help        string

	// redirect
	RedirectURL string
	OIDC        *OIDC

	// directory
	Directory *Directory
}

// OIDC configures a redirect mechanism backed by an OpenID Connect provider.
type OIDC struct {
	ProviderURL  string `validate:"required,url"`
	ClientID     string `validate:"required"`
	ClientSecret string
	RedirectURL  string `validate:"required,url"`
	Scopes       []string
}

// Directory configures an LDAP backed mechanism.
type Directory struct {
	Server        string `validate:"required"`
	Port          int    // default 636
	UseSSL        bool   // ldaps://
	SkipVerify    bool
	BindTemplate  string // e.g. "uid=%s,ou=accounts,dc=example,dc=edu"
	Lookup        *Lookup
	FirstNameAttr string
	LastNameAttr  string
	EmailAttr     string
	Timeout       int // seconds for ldap operations after the preflight
}

// Lookup enables the search-then-bind flow.
type Lookup struct {
	SearchBase     string `validate:"required"`
	SearchField    string `validate:"required"`
	MasterLogin    string
	MasterPassword string
}

// Shibboleth configures the header based federated entry point.
type Shibboleth struct {
	Enabled       bool
	MechanismKey  string // key recorded in the login log, default "Shibboleth"
	LogoutURL     string
	ScopeMap      map[string]string // eppn scope -> affiliation name
	EPPNHeader    string            // default "eppn"
	SessionHeader string            // default "Shib-Session-ID"
}

// Demo configures the demo account lifecycle guard.
type Demo struct {
	Disabled          bool
	NoDemoAffiliation string // affiliation owning the nodemo group, default "Global"
}

// SecretKeys configures the per affiliation secret key check run after each successful login.
type SecretKeys struct {
	Enabled      bool
	SigningKeyID string
}
