package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	// Placeholder replaces photo URLs that are not resolved.
	Placeholder = "https://placehold.net/default.svg"
	// BrokenImage is returned by PlacesResolver for photos it cannot fetch.
	BrokenImage = "/broken-image.png"

	placesKeyPlaceholder = "key=placeholder_api_key"
)

// PlacesURL matches Google Places photo media URLs embedded in replies.
var PlacesURL = regexp.MustCompile(`https://places\.googleapis\.com/v1/[^\s)]+`)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// PhotoResolver maps Places photo URLs to directly loadable image URLs.
type PhotoResolver interface {
	Resolve(ctx context.Context, urls []string) (map[string]string, error)
}

// HTML converts a markdown reply to HTML. Places photo URLs are replaced by
// the URLs resolver returns; URLs it does not return, a failing resolver and
// a nil resolver all fall back to Placeholder.
func HTML(ctx context.Context, md string, resolver PhotoResolver) (string, error) {
	md = ReplacePhotos(ctx, md, resolver)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// ReplacePhotos rewrites every Places photo URL in md.
func ReplacePhotos(ctx context.Context, md string, resolver PhotoResolver) string {
	links := PlacesURL.FindAllString(md, -1)
	if len(links) == 0 {
		return md
	}

	var resolved map[string]string
	if resolver != nil {
		var err error
		if resolved, err = resolver.Resolve(ctx, links); err != nil {
			resolved = nil
		}
	}

	return PlacesURL.ReplaceAllStringFunc(md, func(match string) string {
		if u, ok := resolved[match]; ok && u != "" {
			return u
		}
		return Placeholder
	})
}

// PlacesResolver resolves photo URLs against the Places API by substituting
// the API key and asking for the photo URI instead of a redirect.
type PlacesResolver struct {
	APIKey     string
	HTTPClient *http.Client
}

// Resolve fetches all urls concurrently. Individual failures map to BrokenImage.
func (p *PlacesResolver) Resolve(ctx context.Context, urls []string) (map[string]string, error) {
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	results := make([]string, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = p.resolveOne(ctx, client, u)
		}(i, u)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(urls))
	for i, u := range urls {
		resolved[u] = results[i]
	}
	return resolved, nil
}

func (p *PlacesResolver) resolveOne(ctx context.Context, client *http.Client, u string) string {
	target := strings.Replace(u, placesKeyPlaceholder, "key="+p.APIKey, 1) + "&skipHttpRedirect=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return BrokenImage
	}
	resp, err := client.Do(req)
	if err != nil {
		return BrokenImage
	}
	defer resp.Body.Close()

	var body struct {
		PhotoURI string `json:"photoUri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.PhotoURI == "" {
		return BrokenImage
	}
	return body.PhotoURI
}
