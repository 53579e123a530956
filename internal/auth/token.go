package auth

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/GoVCL/GoVCL/internal/config"
)

const (
	// DefaultValidity is the token lifetime used when none is given.
	DefaultValidity = 600 * time.Minute

	tokenSeparator = "|"

	// PKCS#1 v1.5 type 1 block: 00 01 FF..FF 00 payload, at least eight FF bytes.
	pkcs1Overhead   = 11
	pkcs1MinPadding = 8
)

// AuthToken is the decoded content of the auth cookie.
type AuthToken struct {
	LoginIdentity string
	RemoteIP      string
	Expiry        time.Time
	// ShibSessionID is the federated session the token is bound to, 0 for none.
	ShibSessionID uint64
	// Value is the encoded cookie value.
	Value string
}

// SessionChecker reports whether a federated session row still exists.
type SessionChecker interface {
	ShibSessionExists(ctx context.Context, id uint64) (bool, error)
}

// tokenWire turns tokens into cookie values and back.
// open must wrap every failure in ErrDecrypt.
type tokenWire interface {
	seal(t *AuthToken) (string, error)
	open(value string) (*AuthToken, error)
}

// TokenCodec mints and validates auth tokens with a fixed key pair.
type TokenCodec struct {
	wire     tokenWire
	sessions SessionChecker
	now      func() time.Time
}

// NewTokenCodec returns a codec for the given wire format, see config.TokenFormat*.
// An empty format selects pkcs1.
func NewTokenCodec(keys *KeyPair, format string, sessions SessionChecker) (*TokenCodec, error) {
	if keys == nil || keys.Private == nil || keys.Public == nil {
		return nil, fmt.Errorf("%w: token codec needs a key pair", ErrConfiguration)
	}

	var wire tokenWire

	switch format {
	case "", config.TokenFormatPKCS1:
		wire = pkcs1Wire{keys: keys}
	case config.TokenFormatJWT:
		wire = jwtWire{keys: keys}
	default:
		return nil, fmt.Errorf("%w: unknown token format %q", ErrConfiguration, format)
	}

	return &TokenCodec{wire: wire, sessions: sessions, now: time.Now}, nil
}

// Encode mints a token valid for validity from now. A zero validity means DefaultValidity.
func (c *TokenCodec) Encode(loginIdentity, remoteIP string, validity time.Duration, shibSessionID uint64) (*AuthToken, error) {
	return c.EncodeAt(c.now(), loginIdentity, remoteIP, validity, shibSessionID)
}

// EncodeAt is Encode with an explicit clock.
func (c *TokenCodec) EncodeAt(
	now time.Time,
	loginIdentity, remoteIP string,
	validity time.Duration,
	shibSessionID uint64,
) (*AuthToken, error) {
	if remoteIP == "" {
		return nil, fmt.Errorf("%w: empty remote address", ErrEncryption)
	}

	if loginIdentity == "" || strings.Contains(loginIdentity, tokenSeparator) {
		return nil, fmt.Errorf("%w: invalid login identity %q", ErrEncryption, loginIdentity)
	}

	if validity <= 0 {
		validity = DefaultValidity
	}

	t := &AuthToken{
		LoginIdentity: loginIdentity,
		RemoteIP:      remoteIP,
		Expiry:        time.Unix(now.Add(validity).Unix(), 0),
		ShibSessionID: shibSessionID,
	}

	value, err := c.wire.seal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	t.Value = value

	return t, nil
}

// Decode validates a cookie value presented from remoteIP at now.
// A bound federated session is checked first, its absence is a forced logout.
// The address binding is checked next and holds regardless of expiry.
func (c *TokenCodec) Decode(ctx context.Context, value, remoteIP string, now time.Time) (*AuthToken, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecrypt)
	}

	t, err := c.wire.open(value)
	if err != nil {
		return nil, err
	}

	t.Value = value

	if t.ShibSessionID != 0 {
		if c.sessions == nil {
			return nil, ErrShibSessionInvalid
		}

		exists, errLookup := c.sessions.ShibSessionExists(ctx, t.ShibSessionID)
		if errLookup != nil {
			return nil, fmt.Errorf("check federated session %d: %w", t.ShibSessionID, errLookup)
		}

		if !exists {
			return nil, ErrShibSessionInvalid
		}
	}

	if t.RemoteIP != remoteIP {
		return nil, ErrIPMismatch
	}

	if now.After(t.Expiry) {
		return nil, ErrTokenExpired
	}

	return t, nil
}

// Open only decrypts value. Logout uses it to find the federated session of
// a token that may already be expired or bound to another address.
func (c *TokenCodec) Open(value string) (*AuthToken, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty token", ErrDecrypt)
	}

	t, err := c.wire.open(value)
	if err != nil {
		return nil, err
	}

	t.Value = value

	return t, nil
}

// pkcs1Wire is the classic cookie format: base64 of the RSA private key
// operation over "login|ip|expiry[|shibid]" padded as a PKCS#1 v1.5 type 1 block.
type pkcs1Wire struct {
	keys *KeyPair
}

func (w pkcs1Wire) seal(t *AuthToken) (string, error) {
	payload := formatPayload(t)

	if len(payload) > w.keys.MaxPayload() {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLong, len(payload), w.keys.MaxPayload())
	}

	// hash 0 signs the payload as is, which is exactly a type 1 private key encryption.
	sealed, err := rsa.SignPKCS1v15(nil, w.keys.Private, crypto.Hash(0), []byte(payload))
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return "", fmt.Errorf("%w: %w", ErrPayloadTooLong, err)
		}

		return "", err //nolint:wrapcheck
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (w pkcs1Wire) open(value string) (*AuthToken, error) {
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	pub := w.keys.Public
	k := pub.Size()

	if len(sealed) != k {
		return nil, fmt.Errorf("%w: token is %d bytes, want %d", ErrDecrypt, len(sealed), k)
	}

	s := new(big.Int).SetBytes(sealed)
	if s.Cmp(pub.N) >= 0 {
		return nil, fmt.Errorf("%w: token out of range", ErrDecrypt)
	}

	em := new(big.Int).Exp(s, big.NewInt(int64(pub.E)), pub.N).FillBytes(make([]byte, k))

	if em[0] != 0x00 || em[1] != 0x01 {
		return nil, fmt.Errorf("%w: bad block type", ErrDecrypt)
	}

	i := 2
	for i < k && em[i] == 0xff {
		i++
	}

	if i-2 < pkcs1MinPadding || i >= k || em[i] != 0x00 {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}

	return parsePayload(string(em[i+1:]))
}

func formatPayload(t *AuthToken) string {
	payload := t.LoginIdentity + tokenSeparator + t.RemoteIP + tokenSeparator + strconv.FormatInt(t.Expiry.Unix(), 10)
	if t.ShibSessionID != 0 {
		payload += tokenSeparator + strconv.FormatUint(t.ShibSessionID, 10)
	}

	return payload
}

func parsePayload(payload string) (*AuthToken, error) {
	parts := strings.Split(payload, tokenSeparator)
	if len(parts) != 3 && len(parts) != 4 {
		return nil, fmt.Errorf("%w: payload has %d fields", ErrDecrypt, len(parts))
	}

	if parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: empty payload field", ErrDecrypt)
	}

	expiry, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry: %w", ErrDecrypt, err)
	}

	t := &AuthToken{
		LoginIdentity: parts[0],
		RemoteIP:      parts[1],
		Expiry:        time.Unix(expiry, 0),
	}

	if len(parts) == 4 {
		if t.ShibSessionID, err = strconv.ParseUint(parts[3], 10, 64); err != nil || t.ShibSessionID == 0 {
			return nil, fmt.Errorf("%w: bad federated session id %q", ErrDecrypt, parts[3])
		}
	}

	return t, nil
}
