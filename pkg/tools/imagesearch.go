package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/curielabs/curie/pkg/logger"
)

const (
	imageSearchBaseURL = "https://www.googleapis.com/customsearch/v1"

	// Shown when the search fails or returns nothing usable, so the UI
	// always has a reference image to render.
	fallbackImageURL = "https://blog.cgify.com/wp-content/uploads/2025/03/Teams-Dashboard-Design-3-min.jpg"
)

var validImageExtensions = []string{"jpeg", "jpg", "png", "gif", "webp"}

// ImageSearchResult is the tool output consumed by the UI as a visual
// reference for the generated design.
type ImageSearchResult struct {
	ImageURL   string          `json:"imageUrl"`
	SourceURL  string          `json:"sourceUrl"`
	Dimensions ImageDimensions `json:"dimensions"`
}

type ImageDimensions struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// ImageSearchTool queries Google Custom Search for design inspiration
// images. Failures never propagate: the tool degrades to a fixed fallback
// image so the conversation loop keeps moving.
type ImageSearchTool struct {
	apiKey         string
	searchEngineID string
	baseURL        string
	httpClient     *http.Client
}

func NewImageSearchTool(apiKey, searchEngineID string) *ImageSearchTool {
	return &ImageSearchTool{
		apiKey:         apiKey,
		searchEngineID: searchEngineID,
		baseURL:        imageSearchBaseURL,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

// NewImageSearchToolWithBaseURL is used by tests to point at a stub server.
func NewImageSearchToolWithBaseURL(apiKey, searchEngineID, baseURL string) *ImageSearchTool {
	t := NewImageSearchTool(apiKey, searchEngineID)
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

func (t *ImageSearchTool) Name() string {
	return "search_image"
}

func (t *ImageSearchTool) Description() string {
	return "Search for an image using Google Custom Search to get inspiration for UI"
}

func (t *ImageSearchTool) Params() []Param {
	return []Param{
		{
			Name:        "query",
			Type:        "string",
			Description: "Search query describing the UI to find reference images for",
			Required:    true,
		},
	}
}

func (t *ImageSearchTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	query := FirstStringArg(t.Params(), args)
	if query == "" {
		return nil, fmt.Errorf("missing search query")
	}

	result, err := t.search(ctx, query)
	if err != nil {
		logger.WarnCF("tool", "Image search failed, using fallback",
			map[string]any{
				"query": query,
				"error": err.Error(),
			})
		return fallbackResult(), nil
	}
	return result, nil
}

func (t *ImageSearchTool) search(ctx context.Context, query string) (*ImageSearchResult, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("cx", t.searchEngineID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", "5")

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var searchResponse struct {
		Items []struct {
			Link  string `json:"link"`
			Image struct {
				ContextLink string `json:"contextLink"`
				Height      int    `json:"height"`
				Width       int    `json:"width"`
			} `json:"image"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(searchResponse.Items) == 0 {
		return nil, fmt.Errorf("no images found for %q", query)
	}

	for _, item := range searchResponse.Items {
		if !hasValidImageExtension(item.Link) {
			continue
		}
		return &ImageSearchResult{
			ImageURL:  item.Link,
			SourceURL: item.Image.ContextLink,
			Dimensions: ImageDimensions{
				Height: item.Image.Height,
				Width:  item.Image.Width,
			},
		}, nil
	}

	// Results exist but none has a renderable extension.
	return &ImageSearchResult{}, nil
}

func hasValidImageExtension(link string) bool {
	lower := strings.ToLower(link)
	for _, ext := range validImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func fallbackResult() *ImageSearchResult {
	return &ImageSearchResult{
		ImageURL:  fallbackImageURL,
		SourceURL: fallbackImageURL,
		Dimensions: ImageDimensions{
			Height: 1080,
			Width:  1920,
		},
	}
}
