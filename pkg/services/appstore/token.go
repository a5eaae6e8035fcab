package appstore

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ErrCredential marks signing failures. Every report fetch depends on the
// token, so callers treat this class as fatal for the whole run.
var ErrCredential = errors.New("credential error")

const (
	tokenAudience = "appstoreconnect-v1"
	tokenTTL      = 20 * time.Minute
)

// TokenIssuer builds short-lived ES256 bearer tokens for the reporting API.
type TokenIssuer struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewTokenIssuer(logger zerolog.Logger) *TokenIssuer {
	return &TokenIssuer{
		logger: logger,
		now:    time.Now,
	}
}

// Issue signs a token carrying issuer, issued-at, expiry and audience claims,
// with the key id in the token header.
func (t *TokenIssuer) Issue(privateKeyPEM, keyID, issuerID string) (string, error) {
	if !strings.Contains(privateKeyPEM, "-----BEGIN") {
		// Keys pasted without PEM markers are almost always a
		// misconfiguration; keep going so the parse error says why.
		t.logger.Warn().Str("key_id", keyID).Msg("private key is missing PEM markers")
	}

	key, err := parseECPrivateKey(privateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}

	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": issuerID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
		"aud": tokenAudience,
	})
	token.Header["kid"] = keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: signing failed: %v", ErrCredential, err)
	}
	return signed, nil
}

func parseECPrivateKey(pemText string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key")
	}

	// App Store Connect keys ship as PKCS#8; accept SEC 1 too.
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not an EC key")
		}
		return ecKey, nil
	}

	ecKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC private key: %w", err)
	}
	return ecKey, nil
}
