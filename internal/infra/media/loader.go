package media

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	dommedia "github.com/madhus/roadwatch/internal/domain/media"
)

// hard ceiling on how much of a response body we are willing to read
const maxFetchBytes = 20 << 20

const jpegQuality = 85

// Loader fetches evidence images over HTTP and normalizes them into
// analyzable payloads. Network failures never surface as errors: the
// pipeline must degrade to text-only analysis, not abort.
type Loader struct {
	http         *http.Client
	maxRawBytes  int
	maxDimension int
}

func NewLoader(timeout time.Duration, maxRawBytes, maxDimension int) *Loader {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if maxRawBytes <= 0 {
		maxRawBytes = 4 << 20
	}
	if maxDimension <= 0 {
		maxDimension = 1024
	}
	return &Loader{
		http:         &http.Client{Timeout: timeout},
		maxRawBytes:  maxRawBytes,
		maxDimension: maxDimension,
	}
}

// Load returns the image payload, or (nil, nil) when the image is
// unavailable. Errors are reserved for URIs that are invalid outright.
func (l *Loader) Load(ctx context.Context, uri string) (*dommedia.Payload, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid media URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported media URI scheme: %q", u.Scheme)
	}

	raw, mime := l.fetch(ctx, uri)
	if raw == nil {
		// one retry before giving up on the direct path
		raw, mime = l.fetch(ctx, uri)
	}
	if raw == nil {
		return nil, nil
	}

	// Small payloads with a known image type go straight through.
	if len(raw) <= l.maxRawBytes && supportedMIME(mime) {
		return &dommedia.Payload{Bytes: raw, MIME: mime}, nil
	}

	// Secondary path: decode, bound the longest side, re-encode as JPEG.
	if img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true)); err == nil {
		if img.Bounds().Dx() > l.maxDimension || img.Bounds().Dy() > l.maxDimension {
			img = imaging.Fit(img, l.maxDimension, l.maxDimension, imaging.Lanczos)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err == nil {
			return &dommedia.Payload{Bytes: buf.Bytes(), MIME: "image/jpeg"}, nil
		}
	}

	// Could not re-encode; hand over what we fetched with a sniffed type.
	if !supportedMIME(mime) {
		mime = http.DetectContentType(raw)
	}
	return &dommedia.Payload{Bytes: raw, MIME: mime}, nil
}

func (l *Loader) fetch(ctx context.Context, uri string) ([]byte, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, ""
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil || len(body) == 0 {
		return nil, ""
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i != -1 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = "image/jpeg"
	}
	return body, mime
}

func supportedMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
