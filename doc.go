// Package main is the entry point of GoVCL, the login and session front door
// of a virtual computing lab portal. It authenticates users against LDAP
// directories, a local salted password store, Shibboleth or OpenID Connect
// providers, hands out the RSA signed VCLAUTH session token and moves demo
// accounts whose trial has ended out of the demo group.
//
// See `govcl --help` for the available commands.
package main
