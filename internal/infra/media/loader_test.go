package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadPassesSmallImagesThrough(t *testing.T) {
	body := encodePNG(t, 64, 48)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(time.Second, 4<<20, 1024)
	p, err := l.Load(context.Background(), srv.URL+"/ev.png")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "image/png", p.MIME)
	assert.Equal(t, body, p.Bytes)
}

func TestLoadDownscalesOversizedImages(t *testing.T) {
	body := encodePNG(t, 200, 120)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	// raw limit below the payload size forces the re-encode path
	l := NewLoader(time.Second, 10, 100)
	p, err := l.Load(context.Background(), srv.URL+"/big.png")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "image/jpeg", p.MIME)

	img, err := jpeg.Decode(bytes.NewReader(p.Bytes))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 100)
	assert.LessOrEqual(t, img.Bounds().Dy(), 100)
}

func TestLoadReencodesUnknownContentType(t *testing.T) {
	body := encodePNG(t, 32, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(time.Second, 4<<20, 1024)
	p, err := l.Load(context.Background(), srv.URL+"/blob")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "image/jpeg", p.MIME)
}

func TestLoadRetriesOnceThenDegrades(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewLoader(time.Second, 4<<20, 1024)
	p, err := l.Load(context.Background(), srv.URL+"/missing.jpg")
	assert.NoError(t, err, "an unavailable image is not an error")
	assert.Nil(t, p)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestLoadRecoversOnSecondFetch(t *testing.T) {
	body := encodePNG(t, 16, 16)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(time.Second, 4<<20, 1024)
	p, err := l.Load(context.Background(), srv.URL+"/flaky.png")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, body, p.Bytes)
}

func TestLoadRejectsBadURIs(t *testing.T) {
	l := NewLoader(time.Second, 4<<20, 1024)

	_, err := l.Load(context.Background(), "ftp://example.com/a.jpg")
	assert.Error(t, err)

	_, err = l.Load(context.Background(), "://not-a-uri")
	assert.Error(t, err)
}
