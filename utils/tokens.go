package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/yatube/yatube/config"
)

// TokenTTL is how long an API token issued at login stays valid.
const TokenTTL = 7 * 24 * time.Hour

const revokedKeyPrefix = "jwt:revoked:"

// ErrTokenRevoked is returned by ParseToken for tokens revoked at logout.
var ErrTokenRevoked = errors.New("token revoked")

// Claims identifies the author behind an API token.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for the author.
func GenerateToken(userID uint, username string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{UserID: userID, Username: username}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(duration))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey())
}

// ParseToken validates signature, expiry and revocation of a token.
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return signingKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if isRevoked(tokenStr) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func signingKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// revokedLocal holds revocations made while Redis was unreachable, keyed by token.
var (
	revokedLocal   = map[string]time.Time{}
	revokedLocalMu sync.Mutex
)

// RevokeToken blacklists a token until it would have expired anyway.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	stored := false
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		stored = rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err() == nil
	})
	if stored {
		return
	}
	Sugar.Warnw("token revocation kept in memory", "expires", expiresAt)
	revokedLocalMu.Lock()
	revokedLocal[token] = expiresAt
	revokedLocalMu.Unlock()
}

func isRevoked(token string) bool {
	revokedLocalMu.Lock()
	exp, local := revokedLocal[token]
	if local && time.Now().After(exp) {
		delete(revokedLocal, token)
		local = false
	}
	revokedLocalMu.Unlock()
	if local {
		return true
	}
	// Redis errors count as not revoked.
	found := false
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result()
		found = err == nil && n > 0
	})
	return found
}
