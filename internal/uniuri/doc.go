// Package uniuri generates random strings from crypto/rand: password salts,
// secret keys and OIDC state values.
package uniuri
