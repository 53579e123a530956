package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// MinKeyBits is the smallest RSA modulus accepted for token keys.
const MinKeyBits = 2048

var (
	// ErrNoPEMBlock is returned when a key file holds no PEM data.
	ErrNoPEMBlock = errors.New("no PEM block found")
	// ErrNotRSAKey is returned for non RSA keys.
	ErrNotRSAKey = errors.New("key is not an RSA key")
	// ErrKeyMismatch is returned when the public key does not belong to the private key.
	ErrKeyMismatch = errors.New("public key does not match private key")
	// ErrKeyTooSmall is returned for keys below MinKeyBits.
	ErrKeyTooSmall = errors.New("rsa key is too small")
)

// KeyPair is the fixed key pair tokens are minted and checked with.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// NewKeyPair validates priv and pairs it with its public half.
func NewKeyPair(priv *rsa.PrivateKey) (*KeyPair, error) {
	if priv == nil {
		return nil, ErrNotRSAKey
	}

	if priv.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits", ErrKeyTooSmall, priv.N.BitLen())
	}

	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// GenerateKeyPair creates a fresh key pair.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}

	return NewKeyPair(priv)
}

// LoadKeyPair reads PEM files. pubPath may be empty, the public key is then
// taken from the private key.
func LoadKeyPair(privPath, pubPath string) (*KeyPair, error) {
	privPEM, err := os.ReadFile(privPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	priv, err := ParsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", privPath, err)
	}

	kp, err := NewKeyPair(priv)
	if err != nil {
		return nil, err
	}

	if pubPath == "" {
		return kp, nil
	}

	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	pub, err := ParsePublicKeyPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pubPath, err)
	}

	if !pub.Equal(&priv.PublicKey) {
		return nil, ErrKeyMismatch
	}

	kp.Public = pub

	return kp, nil
}

// ParsePrivateKeyPEM accepts PKCS#1 and PKCS#8 encoded RSA keys.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSAKey
	}

	return key, nil
}

// ParsePublicKeyPEM accepts PKIX and PKCS#1 encoded RSA public keys.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSAKey
	}

	return key, nil
}

// MarshalPEM returns the PKCS#1 private key and PKIX public key PEM encodings.
func (k *KeyPair) MarshalPEM() (privPEM, pubPEM []byte, err error) {
	pubDER, err := x509.MarshalPKIXPublicKey(k.Public)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}

	privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k.Private)})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return privPEM, pubPEM, nil
}

// MaxPayload returns the largest token payload the key can carry in the pkcs1 format.
func (k *KeyPair) MaxPayload() int {
	return k.Public.Size() - pkcs1Overhead
}
