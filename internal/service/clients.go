package service

import (
	"context"
	"time"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/token"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=clients.go -destination=../mocks/clients.go -package=mocks

type Notifier interface {
	SendEmail(ctx context.Context, address, subject, body string) error
}

type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

type TokenManager interface {
	Issue(claims token.Claims, ttl time.Duration) (string, time.Time, error)
	Verify(tokenStr string, purpose token.Purpose) (token.Claims, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type BlobUploader interface {
	Upload(ctx context.Context, data []byte, filename string) (entity.UploadedFile, error)
}
