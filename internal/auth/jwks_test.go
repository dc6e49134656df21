package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
)

func TestPEMFromJWKS(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	x := base64.RawURLEncoding.EncodeToString(priv.X.FillBytes(make([]byte, 32)))
	y := base64.RawURLEncoding.EncodeToString(priv.Y.FillBytes(make([]byte, 32)))
	doc := fmt.Sprintf(`{"keys":[{"kty":"RSA","alg":"RS256"},{"kty":"EC","crv":"P-256","alg":"ES256","use":"sig","x":%q,"y":%q}]}`, x, y)

	pemKey, err := PEMFromJWKS(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	pub, err := ParseECDSAPublicKey(pemKey)
	if err != nil {
		t.Fatalf("parse converted key: %v", err)
	}
	if !pub.Equal(&priv.PublicKey) {
		t.Fatal("converted key does not match the original")
	}
	if _, err := NewVerifier(pemKey); err != nil {
		t.Fatalf("verifier should accept the converted key: %v", err)
	}
}

func TestPEMFromJWKSErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "nope"},
		{"no keys", `{"keys":[]}`},
		{"only rsa", `{"keys":[{"kty":"RSA","alg":"RS256"}]}`},
		{"bad coordinate", `{"keys":[{"kty":"EC","alg":"ES256","x":"***","y":"AA"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PEMFromJWKS(strings.NewReader(tt.doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
