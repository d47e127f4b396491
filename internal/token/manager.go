package token

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
)

type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeEmailVerification Purpose = "email_verification"
)

type Claims struct {
	AccountID  uuid.UUID         `json:"accountId"`
	Purpose    Purpose           `json:"purpose"`
	EntityType entity.EntityType `json:"entityType,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies RS256 tokens.
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	clock      clock.Clock
}

// NewManager expects base64 encoded PEM keys, as stored in the environment.
func NewManager(privateKeyB64, publicKeyB64 string, c clock.Clock) (*Manager, error) {
	privPEM, err := decodeKey(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubPEM, err := decodeKey(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Manager{privateKey: privateKey, publicKey: publicKey, clock: c}, nil
}

func (m *Manager) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Subject:   claims.AccountID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses tokenStr and checks that it was issued for purpose. Every
// failure is reported as entity.ErrInvalidToken.
func (m *Manager) Verify(tokenStr string, purpose Purpose) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		_, ok := token.Method.(*jwt.SigningMethodRSA)
		if !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return m.publicKey, nil
	}, jwt.WithTimeFunc(m.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("token expired: %w", entity.ErrInvalidToken)
		}

		return Claims{}, fmt.Errorf("parse token: %w: %w", entity.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AccountID == uuid.Nil {
		return Claims{}, entity.ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return Claims{}, fmt.Errorf("token purpose %q: %w", claims.Purpose, entity.ErrInvalidToken)
	}

	return claims, nil
}

func decodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(strings.NewReplacer(
		`\`, "", `"`, "", " ", "", "\n", "", "\r", "",
	).Replace(key))

	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(key)
	}

	return decoded, err
}
