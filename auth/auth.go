// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/danielhkuo/armonia/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingClaim = errors.New("token is missing a required claim")
)

// Principal is the authenticated caller resolved from a bearer token
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Claims are the JWT claims carried by bearer tokens
type Claims struct {
	Tenant string `json:"tenant"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateID creates a random UUID v4 string
func GenerateID() string {
	return uuid.NewString()
}

// IssueToken signs an HS256 token for the principal
// ttl <= 0 produces a token without expiry (tests and service accounts)
func IssueToken(p Principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Tenant: p.TenantID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.UserID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates the signature and expiry and returns the principal
func ParseToken(tokenString, secret string) (Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	if claims.Subject == "" || claims.Tenant == "" {
		return Principal{}, ErrMissingClaim
	}

	role := claims.Role
	if role == "" {
		role = models.RoleResident
	}

	return Principal{
		UserID:   claims.Subject,
		TenantID: claims.Tenant,
		Role:     role,
	}, nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) are enough for auditing
	return hex.EncodeToString(sum[:8])
}

// DocumentDigest fingerprints a document as signed by one signer at one instant
func DocumentDigest(document []byte, signerID, role string, at time.Time) string {
	h := sha256.New()
	h.Write(document)
	for _, part := range []string{signerID, role, at.UTC().Format(time.RFC3339Nano)} {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
