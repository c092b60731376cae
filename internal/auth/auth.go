// Package auth generates the short-lived signed tokens required by the
// authenticated streaming channel.
package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the venue-side lifetime of a generated token.
const DefaultTokenTTL = 2 * time.Minute

// Credentials holds the API key id and private key for token generation.
type Credentials struct {
	KeyID      string            // API key id from the venue dashboard
	PrivateKey *ecdsa.PrivateKey // EC private key for ES256 signing
}

// LoadCredentials loads credentials from a key id and a private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key id is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{
		KeyID:      keyID,
		PrivateKey: privateKey,
	}, nil
}

// LoadPrivateKey loads an EC private key from a PEM file.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	// Try PKCS#8 first (newer format)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an EC private key")
		}
		return ecKey, nil
	}

	// Fall back to SEC 1 (older "EC PRIVATE KEY" format)
	ecKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return ecKey, nil
}

// Generate produces a signed ES256 token valid for ttl, scoped to the
// given product ids. The token carries the key id and a random nonce in
// its header.
func (c *Credentials) Generate(ttl time.Duration, productIDs []string) (string, error) {
	if c.PrivateKey == nil {
		return "", fmt.Errorf("no private key loaded")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": c.KeyID,
		"iss": "cdp",
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if len(productIDs) > 0 {
		claims["product_ids"] = productIDs
	}

	nonce, err := newNonce()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.KeyID
	token.Header["nonce"] = nonce

	signed, err := token.SignedString(c.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
