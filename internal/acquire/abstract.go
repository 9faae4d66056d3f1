package acquire

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/retry"
)

const DefaultArxivAPI = "https://export.arxiv.org/api/query"

var (
	arxivID    = regexp.MustCompile(`\d{4}\.\d{4,5}(?:v\d+)?`)
	whitespace = regexp.MustCompile(`\s+`)
)

// AbstractFetcher looks up a paper's title and abstract on arXiv. It is a
// best-effort fallback: every failure is reported as "not found".
type AbstractFetcher struct {
	baseURL string
	opts    options
	policy  retry.Policy
}

func NewAbstractFetcher(baseURL string, policy retry.Policy, timeout time.Duration, opts ...Option) *AbstractFetcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultArxivAPI
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	o := options{client: &http.Client{Timeout: timeout}, logger: zap.NewNop(), maxBytes: 1 << 20}
	for _, opt := range opts {
		opt(&o)
	}
	return &AbstractFetcher{baseURL: baseURL, opts: o, policy: policy}
}

// ExtractArxivID returns the first arXiv-style identifier in s, or "".
func ExtractArxivID(s string) string {
	return arxivID.FindString(s)
}

// Fetch returns "Title\n\nAbstract" for the paper referenced by rawURL.
func (f *AbstractFetcher) Fetch(ctx context.Context, rawURL string) (string, bool) {
	id := ExtractArxivID(rawURL)
	if id == "" {
		return "", false
	}
	log := logging.FromContext(ctx, f.opts.logger).With(zap.String("arxiv_id", id))

	var entry *apiEntry
	_, err := f.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		e, err := f.query(ctx, id)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		log.Warn("abstract lookup failed", zap.Error(err))
		return "", false
	}
	if entry == nil {
		return "", false
	}
	abstract := normalizeWhitespace(entry.Summary)
	if abstract == "" {
		return "", false
	}
	title := normalizeWhitespace(entry.Title)
	if title == "" {
		return abstract, true
	}
	return title + "\n\n" + abstract, true
}

func (f *AbstractFetcher) query(ctx context.Context, id string) (*apiEntry, error) {
	target := f.baseURL + "?" + url.Values{"id_list": {id}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := f.opts.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("arxiv API error: %s (%s)", resp.Status, string(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	entry, err := decodeEntry(io.LimitReader(resp.Body, f.opts.maxBytes))
	if err != nil {
		return nil, retry.Permanent(err)
	}
	return entry, nil
}

type apiFeed struct {
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

func decodeEntry(r io.Reader) (*apiEntry, error) {
	var feed apiFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode arxiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, errors.New("paper not found")
	}
	return &feed.Entries[0], nil
}

func normalizeWhitespace(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
