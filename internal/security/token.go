package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TenantClaims carries the tenant scope for every gallery operation.
// Issuing full user credentials is an upstream concern; this service only
// needs to know which tenant prefix a caller may touch.
type TenantClaims struct {
	TenantID string `json:"tid"`
	jwt.RegisteredClaims
}

func GenerateTenantToken(secret, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   tenantID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func ParseTenantToken(tokenStr string, secret string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*TenantClaims); ok && token.Valid && claims.TenantID != "" {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
