package crypto

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

const (
	// DefaultKeyCacheTTL bounds how long a fetched signing key is reused.
	DefaultKeyCacheTTL = 5 * time.Minute
	signingKeyCacheKey = "signing_key"
)

// StaticKeySource serves a key taken from configuration.
type StaticKeySource struct {
	key []byte
}

// NewStaticKeySource creates a key source from a configured secret.
func NewStaticKeySource(secret string) *StaticKeySource {
	return &StaticKeySource{key: []byte(secret)}
}

// SigningKey returns the configured key.
func (s *StaticKeySource) SigningKey(ctx context.Context) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, errors.ErrServerError("signing key is not configured")
	}
	return s.key, nil
}

// KeyManager caches the key of an upstream source and collapses concurrent fetches.
type KeyManager struct {
	source KeySource
	cache  *cache.Cache
	group  singleflight.Group
	log    logger.Logger
}

// NewKeyManager wraps source with an in-process cache.
func NewKeyManager(source KeySource, ttl time.Duration, log logger.Logger) *KeyManager {
	if ttl <= 0 {
		ttl = DefaultKeyCacheTTL
	}
	return &KeyManager{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
		log:    log.WithComponent("key_manager"),
	}
}

// SigningKey returns the cached key, fetching it from the source on a miss.
func (km *KeyManager) SigningKey(ctx context.Context) ([]byte, error) {
	if v, ok := km.cache.Get(signingKeyCacheKey); ok {
		return v.([]byte), nil
	}

	v, err, _ := km.group.Do(signingKeyCacheKey, func() (interface{}, error) {
		key, err := km.source.SigningKey(ctx)
		if err != nil {
			return nil, err
		}
		km.cache.SetDefault(signingKeyCacheKey, key)
		km.log.Debug(ctx, "Signing key refreshed")
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// InvalidateCache drops the cached key so the next call refetches it.
func (km *KeyManager) InvalidateCache() {
	km.cache.Delete(signingKeyCacheKey)
}

// NewKeySource builds the key source for cfg: Vault when an address is configured,
// otherwise the static jwt.secret.
func NewKeySource(cfg *config.Config, metrics service.Metrics, log logger.Logger) (KeySource, error) {
	if cfg.Vault.Address == "" {
		return NewStaticKeySource(cfg.JWT.Secret), nil
	}

	client, err := NewVaultClient(&cfg.Vault)
	if err != nil {
		return nil, err
	}
	log.Info(context.Background(), "Using Vault for token signing key",
		logger.String("address", cfg.Vault.Address),
		logger.String("mount_path", cfg.Vault.MountPath),
	)
	return NewKeyManager(NewVaultKeySource(client, &cfg.Vault, metrics, log), DefaultKeyCacheTTL, log), nil
}
