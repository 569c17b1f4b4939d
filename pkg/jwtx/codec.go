package jwtx

import (
	"fmt"
	"time"
)

// CodecOptions configure a Codec.
type CodecOptions struct {
	// Issuer is stamped into every token and required on verification.
	Issuer string

	// Leeway extends exp on verification. Keep it zero unless clocks in the
	// deployment are known to drift.
	Leeway time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Codec turns claims into signed compact tokens and back. It only deals
// with signatures and expiry; revocation is checked by the caller.
type Codec struct {
	signer   Signer
	verifier Verifier
	issuer   string
	leeway   time.Duration
	now      func() time.Time
}

// NewCodec builds a Codec on top of an RS256 key pair.
func NewCodec(keys KeyPair, opts CodecOptions) (*Codec, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		signer: newRS256Signer(keys),
		verifier: NewCommonRS256(keys, VerifyOptions{
			Issuer: opts.Issuer,
			Leeway: opts.Leeway,
			Now:    now,
		}),
		issuer: opts.Issuer,
		leeway: opts.Leeway,
		now:    now,
	}, nil
}

// Issue stamps a fresh jti, iss, iat and exp = iat + ttl onto claims and
// signs them. It returns the compact token together with the claims that
// were actually signed.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, Claims, error) {
	if ttl < time.Second {
		return "", Claims{}, fmt.Errorf("%w: ttl must be at least one second, got %s", ErrInvalidClaim, ttl)
	}

	stamped := claims.stamp(c.issuer, c.now(), ttl)

	token, err := c.signer.Sign(stamped)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, stamped, nil
}

// Verify parses a compact token, checks its expiry and RS256 signature and
// returns its claims.
func (c *Codec) Verify(token string) (Claims, error) {
	return c.verifier.Verify(token)
}

// Leeway is how long past exp a token still verifies. Anything keyed on
// token expiry, such as revocation pruning, must wait this long too.
func (c *Codec) Leeway() time.Duration {
	return c.leeway
}

// Alg reports the signing algorithm, for logs and health checks.
func (c *Codec) Alg() string {
	return c.signer.Alg()
}

// Ready reports whether the codec holds usable keys.
func (c *Codec) Ready() bool {
	return c.signer.Validate() == nil
}
