package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/image-annotator/pkg/types"
)

// DefaultTimeout applies when the caller's context has no deadline.
// Vision models on CPU can take minutes per image.
const DefaultTimeout = 300 * time.Second

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a client for the server at ollamaURL. Any path on the URL
// (such as /api/chat) is ignored.
func NewClient(ollamaURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q: scheme and host are required", ollamaURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{client: api.NewClient(base, httpClient)}, nil
}

// SimpleQuery sends an image with a prompt and returns the raw text answer
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, "")
}

// DetectObjects asks the model for bounding boxes and parses its JSON answer.
// Answers that are not usable JSON produce an empty result rather than an error.
func (c *Client) DetectObjects(ctx context.Context, model, prompt, imgB64 string) (*types.DetectionResult, error) {
	raw, err := c.chat(ctx, model, prompt, imgB64, "json")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}
	return ParseDetections(raw), nil
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64, format string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{{
			Role:    "user",
			Content: prompt,
			Images:  []api.ImageData{api.ImageData(imgBytes)},
		}},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.1},
	}
	if format != "" {
		req.Format = json.RawMessage(`"` + format + `"`)
	}

	var content strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return content.String(), nil
}

// ParseDetections extracts a DetectionResult from a model answer. Code fences,
// comments and trailing commas are tolerated.
func ParseDetections(raw string) *types.DetectionResult {
	clean := sanitizeModelJSON(raw)
	if !strings.HasPrefix(clean, "{") {
		return &types.DetectionResult{Description: "model returned non-JSON response"}
	}

	var result types.DetectionResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return &types.DetectionResult{Description: "failed to parse model response"}
	}
	return &result
}

// sanitizeModelJSON removes code fences, comments and trailing commas and keeps the
// outermost object.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
