package sightengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreDecodesGenaiModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user-1", r.PostFormValue("api_user"))
		assert.Equal(t, "secret-1", r.PostFormValue("api_secret"))
		assert.Equal(t, "genai", r.PostFormValue("models"))
		assert.Equal(t, "https://cdn.example.com/ev.jpg", r.PostFormValue("url"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","type":{"ai_generated":0.12}}`))
	}))
	defer srv.Close()

	c := New("user-1", "secret-1", srv.URL, time.Second)
	score, err := c.Score(context.Background(), "https://cdn.example.com/ev.jpg")
	require.NoError(t, err)
	assert.Equal(t, 12, score)
}

func TestScoreFallbackShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ai_generated":{"score":0.875}}`))
	}))
	defer srv.Close()

	c := New("u", "s", srv.URL, time.Second)
	score, err := c.Score(context.Background(), "https://cdn.example.com/ev.jpg")
	require.NoError(t, err)
	assert.Equal(t, 88, score)
}

func TestScoreErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exhausted", http.StatusPaymentRequired)
		}))
		defer srv.Close()

		_, err := New("u", "s", srv.URL, time.Second).Score(context.Background(), "https://x/y.jpg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "402")
	})

	t.Run("missing score field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success"}`))
		}))
		defer srv.Close()

		_, err := New("u", "s", srv.URL, time.Second).Score(context.Background(), "https://x/y.jpg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing ai_generated")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops`))
		}))
		defer srv.Close()

		_, err := New("u", "s", srv.URL, time.Second).Score(context.Background(), "https://x/y.jpg")
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		c := New("u", "s", "http://127.0.0.1:1", 100*time.Millisecond)
		_, err := c.Score(context.Background(), "https://x/y.jpg")
		assert.Error(t, err)
	})
}
