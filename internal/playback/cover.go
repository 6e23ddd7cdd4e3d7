package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boxes-ltd/imaging"
	"github.com/cenkalti/dominantcolor"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultCoverSize = 300
	maxCoverBytes    = 8 << 20
)

// HTTPCoverFetcher downloads cover art with retries and decodes it with [DecodeCover].
type HTTPCoverFetcher struct {
	client *retryablehttp.Client
	size   int
}

// NewHTTPCoverFetcher returns a fetcher that scales covers to fit size x size.
func NewHTTPCoverFetcher(size int, timeout time.Duration, logger *log.Logger) *HTTPCoverFetcher {
	if size <= 0 {
		size = DefaultCoverSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = leveledLogger{shared.WithLogger(logger, "component", "covers")}
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}

	return &HTTPCoverFetcher{client: client, size: size}
}

// LoadCover implements [CoverLoader].
func (f *HTTPCoverFetcher) LoadCover(ctx context.Context, url string) (*models.CoverArt, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}

	art, err := DecodeCover(data, f.size)
	if err != nil {
		return nil, err
	}
	art.URL = url
	return art, nil
}

// DecodeCover decodes an encoded image, scales it to fit size x size and picks its dominant colour.
func DecodeCover(data []byte, size int) (*models.CoverArt, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}
	if size > 0 {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	b := img.Bounds()
	return &models.CoverArt{
		Width:  b.Dx(),
		Height: b.Dy(),
		Accent: dominantcolor.Hex(dominantcolor.Find(img)),
		Image:  img,
	}, nil
}

// leveledLogger adapts [log.Logger] to [retryablehttp.LeveledLogger].
type leveledLogger struct{ l *log.Logger }

func (a leveledLogger) Error(msg string, kv ...any) { a.l.Error(msg, kv...) }
func (a leveledLogger) Info(msg string, kv ...any)  { a.l.Debug(msg, kv...) }
func (a leveledLogger) Debug(msg string, kv ...any) { a.l.Debug(msg, kv...) }
func (a leveledLogger) Warn(msg string, kv ...any)  { a.l.Warn(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveledLogger{}
