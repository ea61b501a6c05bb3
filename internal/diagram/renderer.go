// Package diagram generates and iteratively refines visual artifacts:
// renderer-tool classification, a Kroki-compatible rendering client, and the
// bounded refinement loop with its visual-fidelity rubric.
package diagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daniela/lesson-forge/internal/types"
)

// Renderer turns diagram source into an image. Ping is the one-time
// availability check run before a visual batch is committed.
type Renderer interface {
	Ping(ctx context.Context) error
	Render(ctx context.Context, tool types.RendererTool, source string) ([]byte, error)
}

// HTTPRenderer renders through a Kroki-compatible HTTP service:
// POST {base}/{tool}/svg with the diagram source as the request body.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRenderer creates a renderer client for the given service base URL.
func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping checks that the rendering service answers at all. Any response,
// including an error status, proves reachability; only transport failure
// counts as unavailable.
func (r *HTTPRenderer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return &ServiceUnavailableError{Endpoint: r.baseURL, Cause: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &ServiceUnavailableError{Endpoint: r.baseURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	return nil
}

// Render submits diagram source and returns the SVG bytes. A non-2xx status
// is a RenderError carrying the service's diagnostic body so the refinement
// loop can feed it back as guidance.
func (r *HTTPRenderer) Render(ctx context.Context, tool types.RendererTool, source string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/svg", r.baseURL, tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 500 {
			detail = detail[:500]
		}
		return nil, &RenderError{Tool: string(tool), Status: resp.StatusCode, Detail: detail}
	}

	return body, nil
}
