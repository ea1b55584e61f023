package crypto

import (
	"context"
	"fmt"
	"path"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// signingKeyField is the KV field holding the token signing key.
const signingKeyField = "signing_key"

// VaultKeySource reads the signing key from a HashiCorp Vault KV v2 mount.
type VaultKeySource struct {
	client     *vault.Client
	log        logger.Logger
	metrics    service.Metrics
	mountPath  string
	secretPath string
}

// NewVaultClient creates and configures a new Vault client.
func NewVaultClient(cfg *config.VaultConfig) (*vault.Client, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	return client, nil
}

// NewVaultKeySource creates a key source over an existing Vault client.
func NewVaultKeySource(client *vault.Client, cfg *config.VaultConfig, metrics service.Metrics, log logger.Logger) *VaultKeySource {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &VaultKeySource{
		client:     client,
		log:        log.WithComponent("vault_key_source"),
		metrics:    metrics,
		mountPath:  cfg.MountPath,
		secretPath: cfg.SecretPath,
	}
}

// SigningKey fetches the signing key from Vault.
func (v *VaultKeySource) SigningKey(ctx context.Context) ([]byte, error) {
	start := time.Now()
	secret, err := v.client.Logical().ReadWithContext(ctx, v.getSecretPath())
	v.metrics.RecordVaultAPI("read_signing_key", time.Since(start), err)
	if err != nil {
		v.log.Error(ctx, "Failed to read signing key from vault", err, logger.String("path", v.getSecretPath()))
		return nil, errors.WrapError(err, errors.CodeTemporarilyUnavailable, "secret store unavailable")
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.ErrServerError("signing key not found in vault")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.ErrServerError("signing key not found in vault")
	}
	key, ok := data[signingKeyField].(string)
	if !ok || key == "" {
		return nil, errors.ErrServerError("signing key not found in vault")
	}
	return []byte(key), nil
}

// getSecretPath constructs the full path for a secret in Vault's KVv2 engine.
func (v *VaultKeySource) getSecretPath() string {
	return path.Join(v.mountPath, "data", v.secretPath)
}
