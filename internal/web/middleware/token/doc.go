// Package token provides the middleware that authenticates requests by their
// VCLAUTH cookie.
//
// The middleware performs the following tasks:
//   - decodes the token and checks its federated session, address binding and expiry
//   - sends users with an unusable token back to the login page, clearing the cookie
//   - loads the user and stores it with its login identity in fiber.Locals
//   - runs the demo lifecycle guard before the request proceeds
//
// Requests for which Config.Next returns true pass through untouched.
package token
