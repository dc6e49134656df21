// Package auth verifies identity provider access tokens.
package auth

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"campusportal/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims the portal reads.
type Claims struct {
	Email        string       `json:"email"`
	Name         string       `json:"name,omitempty"`
	Role         string       `json:"role,omitempty"`
	AppMetadata  AppMetadata  `json:"app_metadata,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// AppMetadata is set by the identity provider only, so roles granted there
// cannot be forged by users editing their profile.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

type UserMetadata struct {
	DisplayName string `json:"display_name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
}

// Identity maps verified claims onto the portal identity. The admin role is
// taken from app_metadata first and then from a top-level role claim.
func (c *Claims) Identity() model.Identity {
	role := c.AppMetadata.Role
	if role == "" && c.Role == model.RoleAdmin {
		role = c.Role
	}
	name := c.UserMetadata.DisplayName
	if name == "" {
		name = c.UserMetadata.FullName
	}
	if name == "" {
		name = c.Name
	}
	return model.Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: strings.TrimSpace(name),
		Role:        role,
	}
}

// Verifier validates tokens against one key. keyMaterial is either an HMAC
// secret or a PEM public key (RSA or ECDSA).
type Verifier struct {
	secret []byte
	rsaKey *rsa.PublicKey
	ecKey  *ecdsa.PublicKey
}

func NewVerifier(keyMaterial string) (*Verifier, error) {
	if strings.TrimSpace(keyMaterial) == "" {
		return nil, errors.New("token verification key is empty")
	}
	v := &Verifier{secret: []byte(keyMaterial)}
	if strings.Contains(keyMaterial, "-----BEGIN") {
		if key, err := ParseRSAPublicKey(keyMaterial); err == nil {
			v.rsaKey = key
		} else if key, err := ParseECDSAPublicKey(keyMaterial); err == nil {
			v.ecKey = key
		} else {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
	}
	return v, nil
}

// ParseECDSAPublicKey parses a PEM-encoded ECDSA public key
func ParseECDSAPublicKey(pemKey string) (*ecdsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return ecdsaPub, nil
}

// ParseRSAPublicKey parses a PEM-encoded RSA public key
func ParseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return rsaPub, nil
}

func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// Verify checks the signature and expiry of tokenString. The signing
// method must match the configured key type.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	keyFunc := func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.rsaKey != nil || v.ecKey != nil {
				return nil, fmt.Errorf("unexpected signing method: %v (expected public key)", token.Header["alg"])
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.rsaKey == nil {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.rsaKey, nil
		case *jwt.SigningMethodECDSA:
			if v.ecKey == nil {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.ecKey, nil
		default:
			return nil, fmt.Errorf("unsupported signing algorithm: %v", token.Header["alg"])
		}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
