package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studydash-backend/internal/integration/domain"
)

// Client is the shared HTTP plumbing under every adapter: base-URL
// normalization, JSON decoding and error classification.
type Client struct {
	name    string
	BaseURL string
	http    *http.Client
}

func NewClient(name, rawBaseURL string) (*Client, error) {
	base, err := NormalizeBaseURL(rawBaseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		name:    name,
		BaseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NormalizeBaseURL trims trailing slashes and defaults to https. Plain
// http is kept only for loopback hosts used in testing.
func NormalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("base URL is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !isLoopback(parsed.Hostname()) {
			parsed.Scheme = "https"
		}
	default:
		return "", fmt.Errorf("unsupported scheme %q in base URL", parsed.Scheme)
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}

// GetJSON performs a GET against a path under the base URL and decodes
// the response body into out. The response headers are returned for
// pagination schemes that live in headers.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, header http.Header, out interface{}) (http.Header, error) {
	full := c.BaseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return c.GetJSONAbsolute(ctx, full, header, out)
}

// GetJSONAbsolute is GetJSON against a complete URL, used when a
// provider hands back an absolute next-page link.
func (c *Client) GetJSONAbsolute(ctx context.Context, fullURL string, header http.Header, out interface{}) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.name, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.responseError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &domain.ProviderError{Provider: c.name, Err: err}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &domain.ProviderError{Provider: c.name, Message: "malformed response body", Err: err}
		}
	}
	return resp.Header, nil
}

// Resolve turns a possibly-relative link from a response body into an
// absolute URL under the client's base.
func (c *Client) Resolve(link string) string {
	if link == "" || strings.Contains(link, "://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return c.BaseURL + link
}

func (c *Client) responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := parseProviderMessage(body)

	if resp.StatusCode == http.StatusUnauthorized {
		if message == "" {
			message = "unauthorized"
		}
		return &domain.AuthError{Provider: c.name, Err: errors.New(message)}
	}
	return &domain.ProviderError{Provider: c.name, StatusCode: resp.StatusCode, Message: message}
}

// parseProviderMessage digs a human-readable message out of the common
// error body shapes the LMS dialects use.
func parseProviderMessage(body []byte) string {
	var withMessage struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &withMessage); err == nil && withMessage.Message != "" {
		return withMessage.Message
	}

	var withError struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &withError); err == nil && len(withError.Error) > 0 {
		var text string
		if json.Unmarshal(withError.Error, &text) == nil && text != "" {
			return text
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(withError.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}

	var withErrors struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &withErrors); err == nil && len(withErrors.Errors) > 0 && withErrors.Errors[0].Message != "" {
		return withErrors.Errors[0].Message
	}

	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}

func bearerHeader(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}
