// Package auth establishes who a portal user is and keeps proving it on every request.
//
// # Mechanisms
//
// A Registry holds the configured login mechanisms in display order. The set of
// mechanism types is closed:
//   - RedirectMechanism sends the browser to an external login page, optionally
//     computed by an OIDCProvider
//   - DirectoryMechanism binds to an LDAP server, either with a DN built from a
//     bind template or after searching the directory for the user id
//   - LocalMechanism checks the salted sha1 hashes of the Local affiliation
//
// # Login Flow
//
// Dispatcher drives the login page. Every step ends in a Result carrying a State,
// cookie instructions and an Outcome (Redirect, RenderPage or Established). The
// web layer performs the response, nothing in this package writes to the client.
//
// A directory that cannot be reached within PreflightTimeout yields
// StateServerTimeout. Such attempts are not written to the login log. Rejected
// credentials always are, with the code "invalid credentials" when the directory
// said so and "none" otherwise.
//
// # Tokens
//
// SessionEstablisher mints an AuthToken for the caller's address and sets the
// VCLAUTH and VCLSKIN cookies. TokenCodec checks a presented token in this order:
//  1. the token decrypts and parses, else ErrDecrypt
//  2. a bound federated session still exists, else ErrShibSessionInvalid
//  3. the remote address matches, else ErrIPMismatch
//  4. the token is not past its expiry, else ErrTokenExpired
//
// All four errors mean "log in again" and are reported by IsReauth.
//
// # Demo Accounts
//
// DemoGuard runs after token validation. Users whose only group is demo lose it,
// together with every other custom group, once they completed three reservations
// or their first completed reservation started more than three days ago. They are
// then put into the nodemo group under a named advisory lock.
package auth
