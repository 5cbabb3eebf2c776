package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeys(t *testing.T) Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	return Config{
		PrivPath: privPath,
		PubPath:  pubPath,
		Issuer:   "gym-identity",
		Audience: "gym-admin",
		TTL:      time.Hour,
		KID:      "test",
	}
}

func TestGenerateAndVerify(t *testing.T) {
	cfg := writeKeys(t)

	gen, err := LoadGenerator(cfg)
	require.NoError(t, err)
	ver, err := LoadVerifier(cfg)
	require.NoError(t, err)

	token, jti, err := gen.GenerateAccessToken(42, []string{RoleAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.IdentityID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, jti, claims.ID)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	cfg := writeKeys(t)
	gen, err := LoadGenerator(cfg)
	require.NoError(t, err)

	token, _, err := gen.GenerateAccessToken(1, nil)
	require.NoError(t, err)

	pub, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
	require.NoError(t, err)

	_, err = NewVerifier(pub, cfg.Issuer, "someone-else").Verify(token)
	assert.Error(t, err)

	_, err = NewVerifier(pub, "other-issuer", cfg.Audience).Verify(token)
	assert.Error(t, err)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := LoadRSAPublicKeyFromPEM(path)
	assert.Error(t, err)
	_, err = LoadRSAPrivateKeyFromPEM(path)
	assert.Error(t, err)
}
