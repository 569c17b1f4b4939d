package jwtx_test

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

func TestLoadKeyPair_RoundTrip(t *testing.T) {
	keys := testKeys(t)

	privPEM, err := keys.PrivatePEM()
	require.NoError(t, err)
	pubPEM, err := keys.PublicPEM()
	require.NoError(t, err)

	loaded, err := jwtx.LoadKeyPair(privPEM, pubPEM)
	require.NoError(t, err)
	assert.True(t, keys.Private.Equal(loaded.Private))
	assert.True(t, keys.Public.Equal(loaded.Public))
}

func TestLoadKeyPair_DerivesPublic(t *testing.T) {
	keys := testKeys(t)

	loaded, err := jwtx.LoadKeyPair(mustPrivatePEM(t, keys), nil)
	require.NoError(t, err)
	assert.True(t, keys.Public.Equal(loaded.Public))
}

func TestLoadKeyPair_PKCS1(t *testing.T) {
	keys := testKeys(t)
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(keys.Private),
	})
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(keys.Public),
	})

	loaded, err := jwtx.LoadKeyPair(privPEM, pubPEM)
	require.NoError(t, err)
	assert.True(t, keys.Private.Equal(loaded.Private))
}

func TestLoadKeyPair_Mismatch(t *testing.T) {
	a := testKeys(t)
	b := testKeys(t)
	pubPEM, err := b.PublicPEM()
	require.NoError(t, err)

	_, err = jwtx.LoadKeyPair(mustPrivatePEM(t, a), pubPEM)
	assert.ErrorIs(t, err, jwtx.ErrInvalidKey)
}

func TestLoadKeyPair_Garbage(t *testing.T) {
	_, err := jwtx.LoadKeyPair([]byte("not a key"), nil)
	assert.ErrorIs(t, err, jwtx.ErrInvalidKey)

	_, err = jwtx.ParseRSAPublicKeyPEM([]byte("-----BEGIN FOO-----\nAAAA\n-----END FOO-----\n"))
	assert.ErrorIs(t, err, jwtx.ErrInvalidKey)
}

func TestGenerateKeyPair_MinimumSize(t *testing.T) {
	_, err := jwtx.GenerateKeyPair(1024)
	assert.ErrorIs(t, err, jwtx.ErrInvalidKey)
}
