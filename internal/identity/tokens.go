package identity

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "chorequest"
	tokenAudience = "chorequest-client"
	keyHexSize    = 64
)

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer creates and verifies PASETO v4.local session tokens.
type TokenIssuer struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

// NewTokenIssuer uses the hex-encoded 32-byte key. An empty key generates a
// random one, so tokens do not survive a restart.
func NewTokenIssuer(keyHex string, ttl time.Duration) (*TokenIssuer, error) {
	if keyHex == "" {
		return &TokenIssuer{key: paseto.NewV4SymmetricKey(), ttl: ttl}, nil
	}
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("token key must be %d hex characters, got %d", keyHexSize, len(keyHex))
	}
	key, err := paseto.V4SymmetricKeyFromHex(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse token key: %w", err)
	}
	return &TokenIssuer{key: key, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue creates a token for p.
func (ti *TokenIssuer) Issue(p Principal) (string, Claims, error) {
	now := time.Now()
	claims := Claims{
		UserID:    p.ID,
		Email:     p.Email,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(ti.ttl),
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(claims.UserID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(claims.ExpiresAt)
	token.SetJti(claims.TokenID)
	token.SetString("email", claims.Email)

	return token.V4Encrypt(ti.key, nil), claims, nil
}

// Verify decrypts a token and checks issuer, audience and validity window.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(ti.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	var c Claims
	if c.UserID, err = token.GetSubject(); err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	if c.Email, err = token.GetString("email"); err != nil {
		return nil, fmt.Errorf("token email: %w", err)
	}
	if c.TokenID, err = token.GetJti(); err != nil {
		return nil, fmt.Errorf("token id: %w", err)
	}
	if c.ExpiresAt, err = token.GetExpiration(); err != nil {
		return nil, fmt.Errorf("token expiration: %w", err)
	}
	return &c, nil
}
