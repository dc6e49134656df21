package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
)

type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
}

// PEMFromJWKS converts the first ES256 signing key of a JWKS document into a
// PEM public key that NewVerifier accepts.
func PEMFromJWKS(r io.Reader) (string, error) {
	var jwks JWKS
	if err := json.NewDecoder(r).Decode(&jwks); err != nil {
		return "", fmt.Errorf("parsing JWKS: %w", err)
	}
	for _, key := range jwks.Keys {
		if key.Kty != "EC" || key.Alg != "ES256" {
			continue
		}
		return ecKeyToPEM(key)
	}
	return "", fmt.Errorf("no EC/ES256 key in JWKS (%d keys)", len(jwks.Keys))
}

func ecKeyToPEM(key JWK) (string, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return "", fmt.Errorf("decoding X coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(key.Y)
	if err != nil {
		return "", fmt.Errorf("decoding Y coordinate: %w", err)
	}
	publicKey := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	derBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derBytes})), nil
}
