package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when PEM key material cannot be used for RS256.
var ErrInvalidKey = errors.New("jwtx: invalid key material")

// KeyPair is the RSA signing key pair. It is loaded once at startup and
// only read afterwards, so it is safe to share between goroutines.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair parses PEM encoded key material. When publicPEM is empty the
// public key is derived from the private key. When both are given they
// must belong together.
func LoadKeyPair(privatePEM, publicPEM []byte) (KeyPair, error) {
	priv, err := ParseRSAPrivateKeyPEM(privatePEM)
	if err != nil {
		return KeyPair{}, err
	}

	pub := &priv.PublicKey
	if len(publicPEM) > 0 {
		pub, err = ParseRSAPublicKeyPEM(publicPEM)
		if err != nil {
			return KeyPair{}, err
		}
		if !priv.PublicKey.Equal(pub) {
			return KeyPair{}, fmt.Errorf("%w: public key does not match private key", ErrInvalidKey)
		}
	}

	return KeyPair{Private: priv, Public: pub}, nil
}

// GenerateKeyPair creates a fresh RSA key pair. Used for ephemeral keys in
// development and by the keygen command.
func GenerateKeyPair(bits int) (KeyPair, error) {
	if bits < 2048 {
		return KeyPair{}, fmt.Errorf("%w: RSA key size must be at least 2048 bits", ErrInvalidKey)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("jwtx: generate RSA key: %w", err)
	}
	return KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// Validate does a quick sanity check to make sure we actually have keys.
func (k KeyPair) Validate() error {
	if k.Private == nil || k.Public == nil {
		return fmt.Errorf("%w: nil RSA key", ErrInvalidKey)
	}
	return nil
}

// PrivatePEM encodes the private key as PKCS8.
func (k KeyPair) PrivatePEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.Private)
	if err != nil {
		return nil, fmt.Errorf("jwtx: marshal PKCS8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// PublicPEM encodes the public key as PKIX.
func (k KeyPair) PublicPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.Public)
	if err != nil {
		return nil, fmt.Errorf("jwtx: marshal PKIX: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParseRSAPrivateKeyPEM loads an RSA private key from PEM bytes. Handles
// both PKCS1 and PKCS8 because key tooling disagrees on which to emit.
func ParseRSAPrivateKeyPEM(pemKey []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block for private key", ErrInvalidKey)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS1: %w", ErrInvalidKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS8: %w", ErrInvalidKey, err)
		}
		key, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKey)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
}

// ParseRSAPublicKeyPEM loads an RSA public key from a PKIX, PKCS1 or
// certificate PEM block.
func ParseRSAPublicKeyPEM(pemKey []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block for public key", ErrInvalidKey)
	}

	var pub any
	var err error

	switch block.Type {
	case "PUBLIC KEY":
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
	case "CERTIFICATE":
		var cert *x509.Certificate
		cert, err = x509.ParseCertificate(block.Bytes)
		if err == nil {
			pub = cert.PublicKey
		}
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
	}
	return key, nil
}
