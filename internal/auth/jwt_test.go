package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"campusportal/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func validClaims() Claims {
	return Claims{
		Email:        "ana@example.com",
		UserMetadata: UserMetadata{DisplayName: "Ana"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyHMAC(t *testing.T) {
	v, err := NewVerifier("secret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	claims, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte("secret"), validClaims()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id := claims.Identity()
	if id.UserID != "user-1" || id.Email != "ana@example.com" || id.Name() != "Ana" || id.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	v, _ := NewVerifier("secret")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil
	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims())},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte("secret"), expired)},
		{"no expiry", sign(t, jwt.SigningMethodHS256, []byte("secret"), noExpiry)},
		{"no subject", sign(t, jwt.SigningMethodHS256, []byte("secret"), noSubject)},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); err == nil {
				t.Fatal("expected verification to fail")
			}
		})
	}
}

func TestVerifyECDSA(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewVerifier(pemKey)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := v.Verify(sign(t, jwt.SigningMethodES256, priv, validClaims())); err != nil {
		t.Fatalf("verify: %v", err)
	}
	// an HMAC token signed with the public key text must not pass
	if _, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte(pemKey), validClaims())); err == nil {
		t.Fatal("expected HMAC token to be rejected by a public key verifier")
	}
}

func TestIdentityRole(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		admin  bool
	}{
		{"app metadata", Claims{AppMetadata: AppMetadata{Role: model.RoleAdmin}}, true},
		{"top level", Claims{Role: model.RoleAdmin}, true},
		{"authenticated user", Claims{Role: "authenticated"}, false},
		{"none", Claims{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.Identity().IsAdmin(); got != tt.admin {
				t.Fatalf("IsAdmin() = %v, want %v", got, tt.admin)
			}
		})
	}
}

func TestIdentityNameFallback(t *testing.T) {
	c := Claims{}
	if got := c.Identity().Name(); got != model.AnonymousName {
		t.Fatalf("expected anonymous name, got %q", got)
	}
	c.Name = "Luis"
	if got := c.Identity().Name(); got != "Luis" {
		t.Fatalf("expected claim name, got %q", got)
	}
}

func TestNewVerifierRejectsEmptyKey(t *testing.T) {
	if _, err := NewVerifier("  "); err == nil {
		t.Fatal("expected error for empty key")
	}
}
