// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/trackport/internal/httputil"
	"github.com/pdiddy/trackport/pkg/types"
)

// GoogleEndpoint is the public web translation endpoint.
const GoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend calls the keyless Google web translation endpoint.
type GoogleBackend struct {
	client     *http.Client
	endpoint   string
	userAgent  string
	maxRetries int
}

// NewGoogleBackend returns a GoogleBackend configured from cfg. An empty
// cfg.Endpoint selects GoogleEndpoint.
func NewGoogleBackend(cfg types.TranslatorConfig) *GoogleBackend {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = GoogleEndpoint
	}
	return &GoogleBackend{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Translate sends text to the service and joins the translated sentences.
func (g *GoogleBackend) Translate(ctx context.Context, text, src, dest string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	// Long paragraphs would overflow a query string.
	form := url.Values{
		"client": {"gtx"},
		"sl":     {strings.ToLower(src)},
		"tl":     {dest},
		"dt":     {"t"},
		"q":      {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, g.client, req, g.maxRetries)
	if err != nil {
		return "", fmt.Errorf("calling translation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseGoogleResponse(resp.Body)
}

// parseGoogleResponse reads the nested-array reply, whose first element
// lists [translated, original, ...] pairs one per sentence.
func parseGoogleResponse(r io.Reader) (string, error) {
	var payload []json.RawMessage
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding translation response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("decoding translation response: %w", ErrEmptyText)
	}

	var sentences [][]any
	if err := json.Unmarshal(payload[0], &sentences); err != nil {
		return "", fmt.Errorf("decoding translated sentences: %w", err)
	}

	var b strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		if t, ok := s[0].(string); ok {
			b.WriteString(t)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyText
	}
	return b.String(), nil
}
