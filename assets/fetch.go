// Package assets retrieves the remote images and documents embedded in
// generated PDFs: header logos and attachments.
//
// Fetches are best effort. Every failure is returned as a
// *pdfgen.AssetFetchError so that callers can degrade in place instead of
// failing the whole document.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lvillar/pdfgen"
)

// Asset is a fetched resource.
type Asset struct {
	URI  string
	MIME string
	Data []byte
}

// IsPDF reports whether the asset is a PDF document.
func (a *Asset) IsPDF() bool { return a.MIME == "application/pdf" }

// ImageType returns the fpdf image type of the asset, or "" when it is not
// a directly embeddable image.
func (a *Asset) ImageType() string {
	switch a.MIME {
	case "image/jpeg":
		return "JPG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

var (
	errHostNotAllowed = errors.New("host is not allowed")
	errTooLarge       = errors.New("asset exceeds the size limit")
	errUnsupported    = errors.New("unsupported content type")
)

// Fetcher retrieves assets over HTTP(S) or from data: URIs.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	allowed  []glob.Glob
	cache    *expirable.LRU[string, *Asset]
}

// New creates a Fetcher. Without options it allows every host, limits
// assets to 10 MiB, times out after 15 seconds and does not cache.
func New(opts ...Option) (*Fetcher, error) {
	cfg := &fetcherConfig{
		timeout:  15 * time.Second,
		maxBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	f := &Fetcher{client: cfg.client, maxBytes: cfg.maxBytes}
	if f.client == nil {
		f.client = &http.Client{Timeout: cfg.timeout}
	}
	for _, pattern := range cfg.allowedHosts {
		g, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("assets: invalid host pattern %q: %w", pattern, err)
		}
		f.allowed = append(f.allowed, g)
	}
	if cfg.cacheSize > 0 {
		f.cache = expirable.NewLRU[string, *Asset](cfg.cacheSize, nil, cfg.cacheTTL)
	}
	return f, nil
}

// Fetch retrieves uri. The returned error is always a *pdfgen.AssetFetchError.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Asset, error) {
	a, err := f.fetch(ctx, uri)
	if err != nil {
		return nil, &pdfgen.AssetFetchError{URI: uri, Err: err}
	}
	return a, nil
}

func (f *Fetcher) fetch(ctx context.Context, uri string) (*Asset, error) {
	if strings.HasPrefix(uri, "data:") {
		data, err := decodeDataURI(uri)
		if err != nil {
			return nil, err
		}
		return f.newAsset(uri, data)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q: %w", u.Scheme, errUnsupported)
	}
	if !f.hostAllowed(u.Hostname()) {
		return nil, errHostNotAllowed
	}

	if f.cache != nil {
		if a, ok := f.cache.Get(uri); ok {
			return a, nil
		}
	}

	data, err := f.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	a, err := f.newAsset(uri, data)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Add(uri, a)
	}
	return a, nil
}

func (f *Fetcher) hostAllowed(host string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, g := range f.allowed {
		if g.Match(host) {
			return true
		}
	}
	return false
}

func (f *Fetcher) get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, errTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errTooLarge
	}
	return data, nil
}

func (f *Fetcher) newAsset(uri string, data []byte) (*Asset, error) {
	if int64(len(data)) > f.maxBytes {
		return nil, errTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("empty response")
	}
	mime := mimetype.Detect(data)
	a := &Asset{URI: uri, MIME: baseMIME(mime.String()), Data: data}
	return normalize(a)
}

func baseMIME(m string) string {
	base, _, _ := strings.Cut(m, ";")
	return strings.TrimSpace(base)
}

// decodeDataURI decodes data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
