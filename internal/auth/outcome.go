package auth

// Page names a page the web layer renders for an outcome.
type Page string

const (
	// PageSelect lists the configured mechanisms.
	PageSelect Page = "login/select"
	// PageCredentials is the userid/password form of one mechanism.
	PageCredentials Page = "login/credentials"
	// PageAccountExpired tells a demo user the trial is over.
	PageAccountExpired Page = "message/account_expired"
)

// Outcome is the terminal action of a login step or guard check.
// Implementations: Redirect, RenderPage, Established.
type Outcome interface {
	outcome()
}

// Redirect sends the browser to URL.
type Redirect struct {
	URL string
}

// RenderPage renders Page with Data.
type RenderPage struct {
	Page Page
	Data map[string]any
}

// Established is a successful login.
type Established struct {
	Session *Session
}

func (Redirect) outcome()    {}
func (RenderPage) outcome()  {}
func (Established) outcome() {}
