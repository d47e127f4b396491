package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/pkg/config"
	"github.com/samandr77/microservices/onboarding/pkg/transport"
)

const defaultRetryWaitMax = time.Second * 5

// Client performs unsigned uploads through an upload preset.
type Client struct {
	client       *http.Client
	uploadURL    string
	uploadPreset string
	folder       string
}

func NewClient(cfg config.BlobConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = defaultRetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.HTTPClient.Transport = transport.NewLoggingRoundTripper(retryClient.HTTPClient.Transport)

	retryClient.Logger = nil

	return &Client{
		client:       retryClient.StandardClient(),
		uploadURL:    fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(cfg.CloudinaryURL, "/"), cfg.CloudName),
		uploadPreset: cfg.UploadPreset,
		folder:       cfg.Folder,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Upload(ctx context.Context, data []byte, filename string) (entity.UploadedFile, error) {
	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("create form file: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return entity.UploadedFile{}, fmt.Errorf("write form file: %w", err)
	}

	fields := map[string]string{"upload_preset": c.uploadPreset, "folder": c.folder}
	for k, v := range fields {
		if v == "" {
			continue
		}

		if err := w.WriteField(k, v); err != nil {
			return entity.UploadedFile{}, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return entity.UploadedFile{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("send request: %w", err)
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("read response: %w", err)
	}

	var res uploadResponse

	if err := json.Unmarshal(raw, &res); err != nil {
		return entity.UploadedFile{}, fmt.Errorf("unexpected response, code %d: %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if res.Error != nil {
			msg = res.Error.Message
		}

		return entity.UploadedFile{}, fmt.Errorf("upload failed, code %d: %s", resp.StatusCode, msg)
	}

	if res.SecureURL == "" {
		return entity.UploadedFile{}, errors.New("upload response has no url")
	}

	return entity.UploadedFile{URL: res.SecureURL, ID: res.PublicID}, nil
}
