package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/retry"
	"papersum/internal/util"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultMaxBytes  = 64 << 20
	downloadName     = "download.pdf"

	msgDownloadFailed = "The PDF could not be downloaded. Please check the URL and try again."
	msgNotPDF         = "The URL does not point to a PDF document."
	msgBadURL         = "Please provide a valid http or https URL."
	msgTooLarge       = "The document is larger than the allowed size."
)

var errTooLarge = errors.New("body exceeds size limit")

type Downloader struct {
	opts   options
	policy retry.Policy
}

// Download describes a fetched PDF. Retries is Attempts-1.
type Download struct {
	Path        string
	Attempts    int
	Retries     int
	Bytes       int64
	ContentType string
}

func NewDownloader(policy retry.Policy, timeout time.Duration, opts ...Option) *Downloader {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	o := options{
		client:   &http.Client{Timeout: timeout},
		logger:   zap.NewNop(),
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Downloader{opts: o, policy: policy}
}

// Download fetches rawURL into the scratch dir. A non-PDF content type or a
// non-retryable 4xx fails on the first attempt; network errors, 408, 429 and
// 5xx are retried under the policy.
func (d *Downloader) Download(ctx context.Context, rawURL string, scratch *Scratch) (Download, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Download{}, util.E(util.KindValidation, "download", msgBadURL, err)
	}
	out := Download{Path: scratch.Path(downloadName)}
	log := logging.FromContext(ctx, d.opts.logger)

	attempts, err := d.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		n, ct, err := d.fetchOnce(ctx, u.String(), out.Path)
		if err != nil {
			log.Warn("pdf download attempt failed", zap.Int("attempt", attempt), zap.String("url", u.Redacted()), zap.Error(err))
			return err
		}
		out.Bytes, out.ContentType = n, ct
		return nil
	})
	out.Attempts = attempts
	if attempts > 0 {
		out.Retries = attempts - 1
	}
	if err != nil {
		_ = os.Remove(out.Path)
		if util.KindOf(err) != "" {
			return out, err
		}
		return out, util.E(util.KindTransient, "download", msgDownloadFailed, err)
	}
	log.Info("pdf downloaded", zap.Int("attempts", attempts), zap.Int64("bytes", out.Bytes))
	return out, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, target, dst string) (int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", util.E(util.KindValidation, "download", msgBadURL, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := d.opts.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("get pdf: %w", err)
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return 0, "", util.E(util.KindTransient, "download", msgDownloadFailed, fmt.Errorf("status %d", code))
	case code >= 400:
		return 0, "", util.E(util.KindValidation, "download", fmt.Sprintf("The URL returned HTTP %d.", code), nil)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "pdf") {
		return 0, ct, util.E(util.KindValidation, "download", msgNotPDF, fmt.Errorf("content type %q", ct))
	}

	n, err := writeCapped(dst, resp.Body, d.opts.maxBytes)
	if errors.Is(err, errTooLarge) {
		return 0, ct, util.E(util.KindValidation, "download", msgTooLarge, err)
	}
	return n, ct, err
}

// writeCapped copies at most max bytes of r into path.
func writeCapped(path string, r io.Reader, max int64) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, max+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write file: %w", err)
	}
	if n > max {
		_ = os.Remove(path)
		return 0, errTooLarge
	}
	return n, nil
}
