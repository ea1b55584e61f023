package crypto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/pkg/logger"
)

func newVaultTestSource(t *testing.T, handler http.HandlerFunc) *VaultKeySource {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.VaultConfig{
		Address:    ts.URL,
		Token:      "dev-token",
		MountPath:  "secret",
		SecretPath: "vaultgate/jwt",
	}
	client, err := NewVaultClient(cfg)
	require.NoError(t, err)
	client.SetMaxRetries(0)
	return NewVaultKeySource(client, cfg, nil, logger.NewNoopLogger())
}

func TestVaultKeySource_SigningKey(t *testing.T) {
	source := newVaultTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/vaultgate/jwt", r.URL.Path)
		assert.Equal(t, "dev-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"signing_key":"from-vault"},"metadata":{"version":1}}}`))
	})

	key, err := source.SigningKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("from-vault"), key)
}

func TestVaultKeySource_MissingSecret(t *testing.T) {
	source := newVaultTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := source.SigningKey(context.Background())
	assert.Error(t, err)
}

func TestVaultKeySource_MissingField(t *testing.T) {
	source := newVaultTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"other":"value"}}}`))
	})

	_, err := source.SigningKey(context.Background())
	assert.Error(t, err)
}

func TestNewKeySource_StaticWithoutVault(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "local"}}
	source, err := NewKeySource(cfg, nil, logger.NewNoopLogger())
	require.NoError(t, err)

	key, err := source.SigningKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), key)
}
