package auth

import (
	"errors"

	"github.com/GoVCL/GoVCL/internal/db/models"
)

var (
	// ErrDecrypt is returned when a token cannot be decrypted or parsed.
	// The caller clears the cookie and sends the user back to login.
	ErrDecrypt = errors.New("auth token could not be decrypted")

	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("auth token expired")

	// ErrIPMismatch is returned when a token is presented from a different address than it was minted for.
	ErrIPMismatch = errors.New("auth token remote address changed")

	// ErrShibSessionInvalid is returned when the federated session a token is bound to no longer exists.
	// This is a forced logout and must not be retried.
	ErrShibSessionInvalid = errors.New("federated session is gone")

	// ErrEncryption is returned when a token cannot be minted.
	ErrEncryption = errors.New("auth token could not be encrypted")

	// ErrPayloadTooLong is returned when the token payload exceeds the key's capacity.
	ErrPayloadTooLong = errors.New("auth token payload too long for key")

	// ErrServerTimeout is returned when the directory server cannot be reached.
	// It is shown to the user but not recorded as a failed login.
	ErrServerTimeout = errors.New("directory server did not respond")

	// ErrCredentialsInvalid is returned when a userid/password pair is rejected.
	ErrCredentialsInvalid = errors.New("login failed")

	// ErrConfiguration is returned for configuration problems detected at runtime.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownMechanism is returned when a mechanism key is not registered.
	ErrUnknownMechanism = errors.New("unknown auth mechanism")

	// ErrDuplicateMechanism is returned when a registry receives the same key twice.
	ErrDuplicateMechanism = errors.New("duplicate auth mechanism key")

	// ErrUserNotFound is returned when a login identity has no matching user row.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a directory search matched more than one entry.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInvalidState is returned when an OIDC callback carries an unknown or expired state.
	ErrInvalidState = errors.New("invalid or expired oidc state")

	// ErrIncompleteAssertion is returned when the Shibboleth headers miss or garble the eppn or session id.
	ErrIncompleteAssertion = errors.New("incomplete shibboleth assertion")
)

// RejectedError is a credential rejection carrying the code written to the login log.
// errors.Is(err, ErrCredentialsInvalid) holds for every RejectedError.
type RejectedError struct {
	Code string
	Err  error
}

func (e *RejectedError) Error() string {
	if e.Err == nil {
		return ErrCredentialsInvalid.Error()
	}

	return ErrCredentialsInvalid.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the sentinel and the cause.
func (e *RejectedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCredentialsInvalid}
	}

	return []error{ErrCredentialsInvalid, e.Err}
}

func reject(cause error) *RejectedError {
	return &RejectedError{Code: models.LoginCodeNone, Err: cause}
}

// auditCode returns the login log code for err.
func auditCode(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Code != "" {
		return rejected.Code
	}

	return models.LoginCodeNone
}

// IsReauth reports whether err means "send the user back to login silently".
func IsReauth(err error) bool {
	return errors.Is(err, ErrDecrypt) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrIPMismatch) ||
		errors.Is(err, ErrShibSessionInvalid)
}
