package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
)

const (
	BlobProviderCloudinary = "cloudinary"
	BlobProviderS3         = "s3"
)

type Config struct {
	HTTPPort         int    `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN      string `env:"POSTGRES_DSN"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL         string `env:"REDIS_URL"`

	// Link included in verification emails, the token is appended as ?token=...
	VerifyEmailURL string `env:"VERIFY_EMAIL_URL"`

	JWT   JWTConfig
	OTP   OTPConfig
	Kafka KafkaConfig
	Mail  MailConfig
	Blob  BlobConfig
}

type JWTConfig struct {
	PrivateKey              string        `env:"JWT_PRIVATE_KEY"`
	PublicKey               string        `env:"JWT_PUBLIC_KEY"`
	AccessTokenExpiry       time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"1h"`
	VerificationTokenExpiry time.Duration `env:"JWT_VERIFICATION_TOKEN_EXPIRY" envDefault:"24h"`
}

type OTPConfig struct {
	CodeLength      int           `env:"OTP_CODE_LENGTH"      envDefault:"6"`
	MaxAttempts     int           `env:"OTP_MAX_ATTEMPTS"     envDefault:"5"`
	ResendLimit     int           `env:"OTP_RESEND_LIMIT"     envDefault:"5"`
	ResendWindow    time.Duration `env:"OTP_RESEND_WINDOW"    envDefault:"2h"`
	CleanupInterval time.Duration `env:"OTP_CLEANUP_INTERVAL" envDefault:"1h"`
}

type KafkaConfig struct {
	Brokers         []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic           string   `env:"KAFKA_NOTIFICATION_TOPIC" envDefault:"notifications"`
	ConsumerGroupID string   `env:"KAFKA_CONSUMER_ID" envDefault:"onboarding-mailer"`
	// Runs the mail dispatcher in this process, reading the notification topic.
	ConsumerEnabled bool `env:"KAFKA_CONSUMER_ENABLED" envDefault:"false"`
}

type MailConfig struct {
	Host     string `env:"MAILER_HOST"`
	Port     int    `env:"MAILER_PORT" envDefault:"587"`
	Login    string `env:"MAILER_LOGIN"`
	Password string `env:"MAILER_PASSWORD"`
	From     string `env:"MAILER_FROM"`
	FromName string `env:"MAILER_FROM_NAME" envDefault:"Filantropia PR"`
}

type BlobConfig struct {
	Provider        string        `env:"BLOB_PROVIDER" envDefault:"cloudinary"`
	Timeout         time.Duration `env:"BLOB_TIMEOUT" envDefault:"15s"`
	RetryAttempts   int           `env:"BLOB_RETRY_ATTEMPTS" envDefault:"3"`
	CloudinaryURL   string        `env:"CLOUDINARY_BASE_URL" envDefault:"https://api.cloudinary.com/v1_1"`
	CloudName       string        `env:"CLOUDINARY_CLOUD_NAME"`
	UploadPreset    string        `env:"CLOUDINARY_UPLOAD_PRESET"`
	Folder          string        `env:"BLOB_FOLDER" envDefault:"entities"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3PublicBaseURL string        `env:"S3_PUBLIC_BASE_URL"`
}

func New(envPath string) (Config, error) {
	var c Config

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	err = env.Parse(&c)
	if err != nil {
		return Config{}, err
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) validate() error {
	if c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	if c.JWT.PrivateKey == "" || c.JWT.PublicKey == "" {
		return errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required")
	}

	if c.OTP.CodeLength < 4 || c.OTP.CodeLength > 10 {
		return fmt.Errorf("OTP_CODE_LENGTH must be between 4 and 10, got %d", c.OTP.CodeLength)
	}

	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be at least 1, got %d", c.OTP.MaxAttempts)
	}

	switch c.Blob.Provider {
	case BlobProviderCloudinary, BlobProviderS3:
	default:
		return fmt.Errorf("unknown BLOB_PROVIDER %q", c.Blob.Provider)
	}

	return nil
}
