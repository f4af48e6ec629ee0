package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photo = "https://places.googleapis.com/v1/places/abc/photos/xyz/media?key=placeholder_api_key"

type mapResolver map[string]string

func (m mapResolver) Resolve(context.Context, []string) (map[string]string, error) { return m, nil }

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("offline")
}

func TestReplacePhotos(t *testing.T) {
	md := "![hotel](" + photo + ") and ![pool](https://places.googleapis.com/v1/other)"
	ctx := context.Background()

	t.Run("nil resolver", func(t *testing.T) {
		out := ReplacePhotos(ctx, md, nil)
		assert.Equal(t, 2, strings.Count(out, Placeholder))
		assert.NotContains(t, out, "places.googleapis.com")
	})

	t.Run("partial resolution", func(t *testing.T) {
		out := ReplacePhotos(ctx, md, mapResolver{photo: "https://cdn.example/hotel.jpg"})
		assert.Contains(t, out, "(https://cdn.example/hotel.jpg)")
		assert.Equal(t, 1, strings.Count(out, Placeholder))
	})

	t.Run("failing resolver", func(t *testing.T) {
		out := ReplacePhotos(ctx, md, failingResolver{})
		assert.Equal(t, 2, strings.Count(out, Placeholder))
	})

	t.Run("no photos", func(t *testing.T) {
		assert.Equal(t, "plain", ReplacePhotos(ctx, "plain", failingResolver{}))
	})
}

func TestHTML(t *testing.T) {
	out, err := HTML(context.Background(), "# Day 1\n\n![view](https://places.googleapis.com/v1/p)", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Day 1</h1>")
	assert.Contains(t, out, `<img src="`+Placeholder+`" alt="view">`)
}

func TestPlacesResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "true", r.URL.Query().Get("skipHttpRedirect"))
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"photoUri":"https://lh3.example/photo.jpg"}`))
	}))
	defer srv.Close()

	good := srv.URL + "/v1/good?key=placeholder_api_key"
	bad := srv.URL + "/v1/broken?key=placeholder_api_key"

	r := &PlacesResolver{APIKey: "secret", HTTPClient: srv.Client()}
	resolved, err := r.Resolve(context.Background(), []string{good, bad})
	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example/photo.jpg", resolved[good])
	assert.Equal(t, BrokenImage, resolved[bad])
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Lisbon\n\nThree days of **sun**.", 40, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Lisbon")
	assert.Contains(t, out, "sun")

	_, err = Terminal("x", 0, "notty")
	require.Error(t, err)
}

func TestPills(t *testing.T) {
	assert.Empty(t, Pills(nil))

	out := Pills([]string{"Searching flights", "Searching hotels"})
	assert.Contains(t, out, "Searching flights")
	assert.Contains(t, out, "Searching hotels")
	assert.NotContains(t, out, "\n")
}
