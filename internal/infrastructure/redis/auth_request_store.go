package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service"
	apperrors "github.com/turtacn/vaultgate/pkg/errors"
)

const (
	idKeyPrefix          = "auth_req:id:"
	fingerprintKeyPrefix = "auth_req:fp:"
	userKeyPrefix        = "auth_req:user:"

	// maxDecideAttempts bounds optimistic transaction retries when the record changes under WATCH.
	maxDecideAttempts = 3
)

// redisAuthRequestStore is a Redis-backed implementation of the AuthRequestStore interface.
// Each record lives under its id key with a TTL matching ExpiresAt. A fingerprint key points
// at the id, and a per-account sorted set indexes ids by creation time.
type redisAuthRequestStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisAuthRequestStore creates a new instance of redisAuthRequestStore.
func NewRedisAuthRequestStore(client redis.UniversalClient) service.AuthRequestStore {
	return &redisAuthRequestStore{client: client, now: time.Now}
}

func idKey(id string) string {
	return idKeyPrefix + id
}

func fingerprintKey(email, fingerprint string) string {
	return fingerprintKeyPrefix + normalizeEmail(email) + ":" + fingerprint
}

func userKey(email string) string {
	return userKeyPrefix + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new pending request and its lookup indexes in a single transaction.
func (s *redisAuthRequestStore) Create(ctx context.Context, req *models.AuthRequest) error {
	ttl := req.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("auth request %s is already expired", req.ID)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal auth request: %w", err)
	}

	uKey := userKey(req.Email)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, idKey(req.ID), data, ttl)
	pipe.Set(ctx, fingerprintKey(req.Email, req.Fingerprint), req.ID, ttl)
	pipe.ZAdd(ctx, uKey, redis.Z{Score: float64(req.CreationDate.UnixNano()), Member: req.ID})
	// Requests share one TTL, so the newest member always expires last.
	pipe.Expire(ctx, uKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute redis transaction for auth request creation: %w", err)
	}
	return nil
}

// GetByID retrieves a request by its id.
func (s *redisAuthRequestStore) GetByID(ctx context.Context, id string) (*models.AuthRequest, error) {
	data, err := s.client.Get(ctx, idKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrAuthRequestNotFound(id)
		}
		return nil, fmt.Errorf("failed to get auth request from redis: %w", err)
	}
	return s.decode(id, data)
}

// GetByFingerprint resolves the fingerprint index and loads the request it points at.
// Only a pending, unexpired request is returned.
func (s *redisAuthRequestStore) GetByFingerprint(ctx context.Context, email, fingerprint string) (*models.AuthRequest, error) {
	id, err := s.client.Get(ctx, fingerprintKey(email, fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrAuthRequestNotFound(fingerprint)
		}
		return nil, fmt.Errorf("failed to get auth request id by fingerprint: %w", err)
	}

	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if normalizeEmail(req.Email) != normalizeEmail(email) || !req.IsPending() || req.IsExpired(s.now()) {
		return nil, apperrors.ErrAuthRequestNotFound(fingerprint)
	}
	return req, nil
}

// ListByEmail returns unexpired requests for the account, newest first. Index entries whose
// record already expired are pruned.
func (s *redisAuthRequestStore) ListByEmail(ctx context.Context, email string) ([]*models.AuthRequest, error) {
	uKey := userKey(email)
	ids, err := s.client.ZRevRange(ctx, uKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list auth request ids: %w", err)
	}
	if len(ids) == 0 {
		return []*models.AuthRequest{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = idKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load auth requests: %w", err)
	}

	result := make([]*models.AuthRequest, 0, len(ids))
	var stale []interface{}
	now := s.now()
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		req, err := s.decode(ids[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		if req.IsExpired(now) {
			continue
		}
		result = append(result, req)
	}
	if len(stale) > 0 {
		s.client.ZRem(ctx, uKey, stale...)
	}
	return result, nil
}

// Decide records the decision under WATCH so that two concurrent submissions cannot both win.
func (s *redisAuthRequestStore) Decide(ctx context.Context, id string, approved bool, masterPasswordHash *string, publicKey string) (*models.AuthRequest, error) {
	key := idKey(id)
	var decided *models.AuthRequest

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return apperrors.ErrAuthRequestNotFound(id)
			}
			return err
		}

		req, err := s.decode(id, data)
		if err != nil {
			return err
		}
		now := s.now()
		if req.IsExpired(now) {
			return apperrors.ErrAuthRequestNotFound(id)
		}
		if !req.IsPending() {
			return apperrors.ErrAlreadyDecided(id)
		}

		req.Decide(approved, masterPasswordHash, publicKey, now)
		newData, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal auth request: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, req.ExpiresAt.Sub(now))
			pipe.Del(ctx, fingerprintKey(req.Email, req.Fingerprint))
			return nil
		})
		if err == nil {
			decided = req
		}
		return err
	}

	for attempt := 0; attempt < maxDecideAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return decided, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if _, ok := apperrors.AsAPIError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record auth request decision: %w", err)
	}
	return nil, apperrors.ErrConflict("auth request was modified concurrently").WithMetadata("request_id", id)
}

func (s *redisAuthRequestStore) decode(id string, data []byte) (*models.AuthRequest, error) {
	var req models.AuthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth request %s: %w", id, err)
	}
	return &req, nil
}
