// Package oidc finishes logins started by OIDC backed redirect mechanisms.
//
// The login page redirects to the provider with a state that remembers the
// mechanism key. The provider sends the browser back to the callback, which
// exchanges the code, refreshes the user row, opens a federated session and
// issues the auth token bound to it.
//
//	GET /auth/oidc/callback?state=...&code=...
//
// Logout goes through the common /logout route, deleting the federated
// session revokes every token issued for it.
package oidc
