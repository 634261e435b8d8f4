package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures local credential verification. Exactly one of Secret
// (HS256) or PublicKey (EdDSA, base64) must be set.
type JWTConfig struct {
	Secret    string
	PublicKey string
	Issuer    string
	Now       func() time.Time
}

type credentialClaims struct {
	jwt.RegisteredClaims
	Name     string `json:"name"`
	Username string `json:"username"`
}

type JWTVerifier struct {
	key     any
	methods []string
	issuer  string
	now     func() time.Time
}

func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{issuer: strings.TrimSpace(cfg.Issuer), now: cfg.Now}
	if v.now == nil {
		v.now = time.Now
	}
	secret := strings.TrimSpace(cfg.Secret)
	publicKey := strings.TrimSpace(cfg.PublicKey)
	switch {
	case secret != "" && publicKey != "":
		return nil, errors.New("jwt verifier: secret and public key are mutually exclusive")
	case secret != "":
		v.key = []byte(secret)
		v.methods = []string{jwt.SigningMethodHS256.Alg()}
	case publicKey != "":
		raw, err := decodeBase64(publicKey)
		if err != nil {
			return nil, fmt.Errorf("jwt verifier: decode public key: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("jwt verifier: public key must be %d bytes", ed25519.PublicKeySize)
		}
		v.key = ed25519.PublicKey(raw)
		v.methods = []string{jwt.SigningMethodEdDSA.Alg()}
	default:
		return nil, errors.New("jwt verifier: secret or public key is required")
	}
	return v, nil
}

// Verify parses the credential as a signed JWT. The subject becomes the
// participant id; name or username becomes the display name.
func (v *JWTVerifier) Verify(_ context.Context, credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, ErrInvalidCredential
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	var claims credentialClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: subject is required", ErrInvalidCredential)
	}
	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = strings.TrimSpace(claims.Username)
	}
	if name == "" {
		name = subject
	}
	return Identity{ParticipantID: subject, DisplayName: name}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %v", ErrExpiredCredential, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
