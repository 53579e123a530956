package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtClaims carries the same fields as the pkcs1 payload.
type jwtClaims struct {
	IP  string `json:"ip"`
	SID uint64 `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// jwtWire encodes tokens as RS256 JWTs. Expiry is checked by TokenCodec.Decode,
// not by the jwt parser, so both formats report errors in the same order.
type jwtWire struct {
	keys *KeyPair
}

func (w jwtWire) seal(t *AuthToken) (string, error) {
	claims := jwtClaims{
		IP:  t.RemoteIP,
		SID: t.ShibSessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.LoginIdentity,
			ExpiresAt: jwt.NewNumericDate(t.Expiry),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(w.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return signed, nil
}

func (w jwtWire) open(value string) (*AuthToken, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &jwtClaims{}

	if _, err := parser.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return w.keys.Public, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	if claims.Subject == "" || claims.IP == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: incomplete claims", ErrDecrypt)
	}

	return &AuthToken{
		LoginIdentity: claims.Subject,
		RemoteIP:      claims.IP,
		Expiry:        time.Unix(claims.ExpiresAt.Unix(), 0),
		ShibSessionID: claims.SID,
	}, nil
}
