package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/pkg/config"
)

type Client struct {
	client        *s3.Client
	bucket        string
	folder        string
	publicBaseURL string
}

func NewClient(ctx context.Context, cfg config.BlobConfig) (*Client, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		if cfg.S3Endpoint != "" {
			baseURL = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
	}

	return &Client{
		client:        client,
		bucket:        cfg.S3Bucket,
		folder:        cfg.Folder,
		publicBaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (c *Client) Upload(ctx context.Context, data []byte, filename string) (entity.UploadedFile, error) {
	key := path.Join(c.folder, uuid.Must(uuid.NewV4()).String()+"-"+path.Base(filename))

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return entity.UploadedFile{}, fmt.Errorf("put object %s: %s: %s", key, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}

		return entity.UploadedFile{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return entity.UploadedFile{URL: c.publicBaseURL + "/" + key, ID: key}, nil
}
