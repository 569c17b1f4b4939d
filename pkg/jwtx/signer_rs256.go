package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// RS256Signer implements the Signer interface using RSA SHA-256.
type RS256Signer struct {
	keys KeyPair
	alg  string
}

func newRS256Signer(keys KeyPair) *RS256Signer {
	return &RS256Signer{
		keys: keys,
		alg:  jwt.SigningMethodRS256.Alg(),
	}
}

func (s *RS256Signer) Alg() string { return s.alg }

// Sign takes your claims and turns them into a signed compact JWT. The
// header always carries typ=Bearer next to the algorithm.
func (s *RS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header[HeaderType] = TokenType
	return t.SignedString(s.keys.Private)
}

// Validate does a quick sanity check to make sure we actually have keys.
func (s *RS256Signer) Validate() error {
	return s.keys.Validate()
}
