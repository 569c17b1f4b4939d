package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Verifier validates JWTs signed using RS256.
type RS256Verifier struct {
	keys   KeyPair
	issuer string
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifierRS256 creates a verifier for tokens signed by keys.Private.
func NewVerifierRS256(keys KeyPair, opts VerifyOptions) *RS256Verifier {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RS256Verifier{
		keys:   keys,
		issuer: opts.Issuer,
		leeway: opts.Leeway,
		now:    now,
		// Claims are validated by hand below so the ordering of checks and
		// the clock stay under our control.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Verify validates the JWT string and returns its parsed Claims.
//
// Expiry is checked before the signature: an expired token is reported as
// ErrExpired whether or not its signature would verify.
func (v *RS256Verifier) Verify(tokenStr string) (*Claims, error) {
	// 1. Structure and expiry, no key needed yet
	unverified := &Claims{}
	if _, _, err := v.parser.ParseUnverified(tokenStr, unverified); err != nil {
		return nil, mapParseError(err)
	}
	if err := unverified.ValidateExpiry(v.now(), v.leeway); err != nil {
		return nil, err
	}

	// 2. Signature against our public key
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.keys.Public, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSig
	}

	// 3. Remaining claim requirements
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrMalformed)
	}

	return claims, nil
}

// mapParseError folds the jwt library's error tree into our taxonomy. Only
// structural problems count as malformed; anything that stops the
// signature from verifying (unknown alg, alg=none, bad bytes) is a
// signature failure.
func mapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidSig, err)
}
