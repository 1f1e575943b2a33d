package szurubooru

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Client talks to a single szurubooru instance. It is safe for concurrent
// use; the resource handles it creates are not.
type Client struct {
	endpoint   *Endpoint
	httpClient Doer
	logger     zerolog.Logger
	userAgent  string
	pageSize   int
	maxPages   int
}

// NewClient creates a new szurubooru client for a resolved endpoint
func NewClient(endpoint *Endpoint, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if endpoint == nil {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	if err := endpoint.validate(); err != nil {
		return nil, err
	}

	o := clientOptions{
		timeout:   DefaultTimeout,
		userAgent: "szuru",
		pageSize:  DefaultPageSize,
		maxPages:  DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  o.userAgent,
		pageSize:   o.pageSize,
		maxPages:   o.maxPages,
	}, nil
}

// Endpoint returns the endpoint the client was built for.
func (c *Client) Endpoint() *Endpoint {
	return c.endpoint
}

// Call performs a JSON request against the API path built from parts and
// decodes the JSON object in the response.
func (c *Client) Call(ctx context.Context, method string, parts []string, query url.Values, body any) (map[string]any, error) {
	method = strings.ToUpper(method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.endpoint.APIURL(parts, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Msg("Making szurubooru API request")

	return c.do(req)
}

// Upload sends content to the temporary upload area and returns the token
// that posts can reference.
func (c *Client) Upload(ctx context.Context, content io.Reader, filename string) (FileToken, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("content", filename)
	if err != nil {
		return FileToken{}, fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return FileToken{}, fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := w.Close(); err != nil {
		return FileToken{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	target := c.endpoint.APIURL([]string{"uploads"}, nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return FileToken{}, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.logger.Debug().
		Str("filename", filename).
		Int("size", buf.Len()).
		Msg("Uploading file to szurubooru")

	data, err := c.do(req)
	if err != nil {
		return FileToken{}, err
	}

	token, _ := data["token"].(string)
	if token == "" {
		return FileToken{}, ErrMissingToken
	}
	return FileToken{Token: token, Filename: filename}, nil
}

// UploadFile uploads the file at path, read through fs.
func (c *Client) UploadFile(ctx context.Context, fs afero.Fs, path string) (FileToken, error) {
	f, err := fs.Open(path)
	if err != nil {
		return FileToken{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.Upload(ctx, f, filepath.Base(path))
}

// Info returns the server's /info document.
func (c *Client) Info(ctx context.Context) (map[string]any, error) {
	return c.Call(ctx, http.MethodGet, []string{"info"}, nil, nil)
}

// TestConnection verifies the endpoint is reachable and the credentials accepted
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.Info(ctx); err != nil {
		return fmt.Errorf("failed to connect to szurubooru: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	for k, v := range c.endpoint.Headers {
		req.Header.Set(k, v)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{
		StatusCode: status,
		Body:       string(body),
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err == nil {
		name, hasName := doc["name"].(string)
		description, hasDescription := doc["description"].(string)
		if hasName && hasDescription {
			apiErr.Name = name
			apiErr.Description = description
		}
	}
	return apiErr
}
