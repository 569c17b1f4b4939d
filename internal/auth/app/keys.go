package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

const ephemeralKeyBits = 2048

// LoadKeys loads the RS256 key pair from configuration.
//
// Without any configured key material a throwaway pair is generated, but
// only when ENV=dev: tokens signed with it stop verifying on restart.
func LoadKeys(cfg Config, logger *slog.Logger) (jwtx.KeyPair, error) {
	privatePEM, err := pemSource(cfg.PrivateKey, cfg.PrivateKeyFile)
	if err != nil {
		return jwtx.KeyPair{}, fmt.Errorf("private key: %w", err)
	}
	publicPEM, err := pemSource(cfg.PublicKey, cfg.PublicKeyFile)
	if err != nil {
		return jwtx.KeyPair{}, fmt.Errorf("public key: %w", err)
	}

	if len(privatePEM) == 0 {
		if cfg.Env != "dev" {
			return jwtx.KeyPair{}, fmt.Errorf("%w: AUTH_PRIVATE_KEY or AUTH_PRIVATE_KEY_FILE is required outside dev", ErrInvalidConfig)
		}
		if len(publicPEM) > 0 {
			return jwtx.KeyPair{}, fmt.Errorf("%w: a public key was configured without its private key", ErrInvalidConfig)
		}

		logger.Warn("no signing key configured, generating an ephemeral key pair; tokens will not survive a restart",
			"bits", ephemeralKeyBits)
		return jwtx.GenerateKeyPair(ephemeralKeyBits)
	}

	keys, err := jwtx.LoadKeyPair(privatePEM, publicPEM)
	if err != nil {
		return jwtx.KeyPair{}, err
	}

	logger.Info("signing keys loaded", "bits", keys.Private.N.BitLen(), "public_key_derived", len(publicPEM) == 0)
	return keys, nil
}

func pemSource(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// WriteKeyPair generates a key pair and writes private.pem (PKCS8, 0600)
// and public.pem (PKIX) into dir.
func WriteKeyPair(dir string, bits int) (privatePath, publicPath string, err error) {
	keys, err := jwtx.GenerateKeyPair(bits)
	if err != nil {
		return "", "", err
	}

	privatePEM, err := keys.PrivatePEM()
	if err != nil {
		return "", "", err
	}
	publicPEM, err := keys.PublicPEM()
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", err
	}

	privatePath = filepath.Join(dir, "private.pem")
	publicPath = filepath.Join(dir, "public.pem")

	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return "", "", err
	}
	return privatePath, publicPath, nil
}
