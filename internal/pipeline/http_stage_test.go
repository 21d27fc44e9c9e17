package pipeline

import (
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskServer(t *testing.T, width, height int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))

		_, _, err := r.FormFile("image")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "image/png")
		require.NoError(t, png.Encode(w, image.NewGray(image.Rect(0, 0, width, height))))
	}))
}

func TestHTTPSegmenter_Segment(t *testing.T) {
	srv := maskServer(t, 4, 4)
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mask, err := seg.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 4), mask.Bounds().Size())
}

func TestHTTPSegmenter_RejectsMismatchedMask(t *testing.T) {
	srv := maskServer(t, 2, 2)
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := seg.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mask of size")
}

func TestHTTPGenerator_SendsMaskAndPrompt(t *testing.T) {
	var gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))

		_, _, err := r.FormFile("image")
		require.NoError(t, err)
		_, _, err = r.FormFile("mask")
		require.NoError(t, err)
		gotPrompt = r.FormValue("prompt")

		w.Header().Set("Content-Type", "image/png")
		require.NoError(t, png.Encode(w, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	mask := image.NewGray(image.Rect(0, 0, 4, 4))

	result, err := gen.Generate(context.Background(), img, mask, PromptFor("warm"))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 4), result.Bounds().Size())
	assert.Equal(t, PromptFor("warm"), gotPrompt)
}

func TestInferenceClient_Non2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := seg.Segment(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
