package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/observability/metrics"
	"github.com/yourorg/roomstay/internal/reliability/circuitbreaker"
)

// ErrUnavailable is returned while the breaker is open and the media host is
// not being called at all.
var ErrUnavailable = fmt.Errorf("media service temporarily unavailable")

// Config holds media host connection settings. It is passed explicitly into
// NewClient; the client keeps no process-wide state.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Folder    string
	Timeout   time.Duration
}

// Client talks to the hosted media service over HTTP with circuit breaker
// protection. Individual calls are never retried; failures are reported to
// the caller.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	breaker *circuitbreaker.Breaker
}

// NewClient creates a media client from an explicit config
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid media base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cb := circuitbreaker.New(5, 2, 30*time.Second)
	cb.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("media circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		breaker: cb,
	}, nil
}

// Upload stores the file bytes on the media host and returns the assigned
// asset reference and URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (*domain.MediaAsset, error) {
	if !c.breaker.Allow() {
		return nil, ErrUnavailable
	}
	start := time.Now()

	asset, err := c.upload(ctx, name, data)
	c.breaker.Record(err)
	if err != nil {
		metrics.ObserveMedia("upload", "error", time.Since(start))
		return nil, err
	}

	metrics.ObserveMedia("upload", "success", time.Since(start))
	c.logger.Debug("media asset uploaded",
		slog.String("asset_id", asset.ID),
		slog.Int("bytes", len(data)),
	)
	return asset, nil
}

func (c *Client) upload(ctx context.Context, name string, data []byte) (*domain.MediaAsset, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("folder", c.cfg.Folder); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.assetsURL(""), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("media upload failed: status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("media upload returned empty asset id")
	}
	if out.URL == "" {
		out.URL = c.AssetURL(out.ID)
	}

	return &domain.MediaAsset{ID: out.ID, URL: out.URL}, nil
}

// Delete removes a stored asset. Deleting an asset the host no longer knows
// is treated as success so the call stays idempotent.
func (c *Client) Delete(ctx context.Context, assetID string) error {
	if !c.breaker.Allow() {
		return ErrUnavailable
	}
	start := time.Now()

	err := c.delete(ctx, assetID)
	c.breaker.Record(err)
	if err != nil {
		metrics.ObserveMedia("delete", "error", time.Since(start))
		return err
	}

	metrics.ObserveMedia("delete", "success", time.Since(start))
	return nil
}

func (c *Client) delete(ctx context.Context, assetID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.assetsURL(assetID), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("media delete failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("media delete failed: status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
}

// AssetURL returns the retrievable URL for a stored asset reference
func (c *Client) AssetURL(assetID string) string {
	return c.assetsURL(assetID)
}

func (c *Client) assetsURL(assetID string) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/assets"
	if assetID == "" {
		return base
	}
	return base + "/" + url.PathEscape(assetID)
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
