package crypto

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// KeySource supplies the HMAC key used to sign and verify bearer tokens.
// KeySource 提供用于签发和验证 Bearer 令牌的 HMAC 密钥。
type KeySource interface {
	// SigningKey returns the current signing key.
	// SigningKey 返回当前的签名密钥。
	SigningKey(ctx context.Context) ([]byte, error)
}

// AccountClaims are the claims carried by an account bearer token.
// AccountClaims 是账户 Bearer 令牌携带的声明。
type AccountClaims struct {
	// Email is the account the token was issued for.
	// Email 是令牌签发对应的账户。
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager defines the core operations of generating and verifying account tokens.
// JWTManager 定义了生成和验证账户令牌的核心操作。
type JWTManager interface {
	// GenerateJWT signs a token for the account identified by userID and email.
	// GenerateJWT 为 userID 和 email 标识的账户签发令牌。
	GenerateJWT(ctx context.Context, userID, email string) (string, error)
	// VerifyJWT parses and validates a token string.
	// VerifyJWT 解析并验证令牌字符串。
	VerifyJWT(ctx context.Context, tokenString string) (*AccountClaims, error)
}
