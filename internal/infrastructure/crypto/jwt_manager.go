package crypto

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

type jwtManagerImpl struct {
	keys   KeySource
	issuer string
	ttl    time.Duration
	log    logger.Logger
	now    func() time.Time
}

// NewJWTManager creates a new HS256 JWTManager.
func NewJWTManager(keys KeySource, cfg config.JWTConfig, log logger.Logger) JWTManager {
	return &jwtManagerImpl{
		keys:   keys,
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		log:    log.WithComponent("jwt_manager"),
		now:    time.Now,
	}
}

// GenerateJWT creates and signs a new JWT.
func (j *jwtManagerImpl) GenerateJWT(ctx context.Context, userID, email string) (string, error) {
	if userID == "" || email == "" {
		return "", errors.ErrInvalidRequest("user id and email are required")
	}
	key, err := j.keys.SigningKey(ctx)
	if err != nil {
		return "", err
	}

	now := j.now()
	claims := AccountClaims{
		Email: strings.ToLower(email),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		j.log.Error(ctx, "Failed to sign JWT", err)
		return "", errors.WrapError(err, errors.CodeServerError, "failed to sign token")
	}
	return signed, nil
}

// VerifyJWT parses and validates a JWT string.
func (j *jwtManagerImpl) VerifyJWT(ctx context.Context, tokenString string) (*AccountClaims, error) {
	key, err := j.keys.SigningKey(ctx)
	if err != nil {
		return nil, err
	}

	claims := &AccountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrUnauthorized("token has expired")
		}
		return nil, errors.ErrUnauthorized("invalid token").WithCause(err)
	}
	if !token.Valid || claims.Subject == "" || claims.Email == "" {
		return nil, errors.ErrUnauthorized("invalid token")
	}
	return claims, nil
}
