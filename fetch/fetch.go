// Package fetch downloads the endpoint list the latency measurement tool
// reads (ip.txt, one CIDR per line).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.ntppool.org/common/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/edgepick/edgepick/shortlist"
	"github.com/edgepick/edgepick/version"
)

// DefaultURL is the upstream endpoint list of CloudflareSpeedTest.
const DefaultURL = "https://raw.githubusercontent.com/XIU2/CloudflareSpeedTest/master/ip.txt"

const maxListSize = 4 << 20

var ErrNotFound = errors.New("endpoint list not found")

// Options tune the retry behavior; the zero value uses the defaults.
type Options struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (o Options) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0.3
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	if o.InitialInterval > 0 {
		b.InitialInterval = o.InitialInterval
	}
	if o.MaxInterval > 0 {
		b.MaxInterval = o.MaxInterval
	}
	return b
}

func (o Options) maxTries() uint {
	if o.MaxTries == 0 {
		return 5
	}
	return o.MaxTries
}

// EnsureFile downloads url to dst unless dst already exists. It reports
// whether a download happened.
func EnsureFile(ctx context.Context, client *http.Client, url, dst string, opts Options) (bool, error) {
	_, err := os.Stat(dst)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := Download(ctx, client, url, dst, opts); err != nil {
		return false, err
	}
	return true, nil
}

// Download fetches url and atomically writes it to dst. Network errors,
// 5xx and 429 responses are retried with exponential backoff; other
// client errors fail right away.
func Download(ctx context.Context, client *http.Client, url, dst string, opts Options) error {
	log := logger.FromContext(ctx)

	ctx, span := otel.Tracer("fetch").Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		b, err := get(ctx, client, url)
		if err != nil {
			log.WarnContext(ctx, "download failed", "url", url, "attempt", attempt, "err", err)
		}
		return b, err
	},
		backoff.WithBackOff(opts.backOff()),
		backoff.WithMaxTries(opts.maxTries()),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("downloading %s: %w", url, err)
	}

	if err := shortlist.ReplaceFile(dst, body); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}

	log.InfoContext(ctx, "downloaded endpoint list", "url", url, "dst", dst, "bytes", len(body))
	span.SetAttributes(attribute.Int("bytes", len(body)))

	return nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "edgepick/"+version.Version())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %s", resp.Status))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxListSize {
		return nil, backoff.Permanent(fmt.Errorf("endpoint list larger than %d bytes", maxListSize))
	}
	return b, nil
}
