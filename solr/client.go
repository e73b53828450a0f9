package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SourceClient is the collaborator interface the migration engine consumes.
// The HTTP implementation below talks to a live Solr node; tests substitute
// in-memory fakes.
type SourceClient interface {
	// ReadSchema returns the collection's full managed schema.
	ReadSchema(ctx context.Context) (*Schema, error)

	// FileContents fetches a raw configset file (stopwords, synonyms,
	// stemmer dictionaries) by its path relative to the configset root.
	FileContents(ctx context.Context, path string) (string, error)

	// QueryRaw issues one select request and returns the raw response body.
	// The body is returned unparsed because binary-field repair must run
	// before JSON decoding.
	QueryRaw(ctx context.Context, p QueryParams) ([]byte, error)

	// Count returns the total number of documents matching all docs.
	Count(ctx context.Context) (int, error)

	// Collection returns the collection name the client is bound to.
	Collection() string
}

// ClientConfig holds connection settings for the HTTP client.
type ClientConfig struct {
	BaseURL    string // e.g. http://solr-host:8983
	Collection string
	Username   string
	Password   string
	Timeout    time.Duration
}

// Client is the HTTP implementation of SourceClient.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger

	// schema is cached after the first read; the schema is treated as
	// immutable for the duration of a run.
	schema *Schema
}

// NewClient creates a Solr HTTP client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Collection returns the configured collection name.
func (c *Client) Collection() string {
	return c.cfg.Collection
}

// ReadSchema returns the collection schema, fetching it on first use.
func (c *Client) ReadSchema(ctx context.Context) (*Schema, error) {
	if c.schema != nil {
		return c.schema, nil
	}

	body, err := c.get(ctx, fmt.Sprintf("/solr/%s/schema", c.cfg.Collection), nil)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var resp struct {
		Schema Schema `json:"schema"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode schema response: %w", err)
	}

	c.logger.Info("Loaded schema",
		"collection", c.cfg.Collection,
		"field_types", len(resp.Schema.FieldTypes),
		"fields", len(resp.Schema.Fields))

	c.schema = &resp.Schema
	return c.schema, nil
}

// FileContents fetches a configset file through the admin file handler.
func (c *Client) FileContents(ctx context.Context, path string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/solr/%s/admin/file", c.cfg.Collection), url.Values{
		"file": {path},
	})
	if err != nil {
		return "", fmt.Errorf("fetch file %s: %w", path, err)
	}
	return string(body), nil
}

// QueryRaw issues a select request and returns the unparsed body.
func (c *Client) QueryRaw(ctx context.Context, p QueryParams) ([]byte, error) {
	params := url.Values{
		"q":    {p.Query},
		"rows": {strconv.Itoa(p.Rows)},
		"wt":   {"json"},
	}
	if p.FieldList != "" {
		params.Set("fl", p.FieldList)
	}
	if p.Sort != "" {
		params.Set("sort", p.Sort)
	}
	if p.CursorMark != "" {
		params.Set("cursorMark", p.CursorMark)
	}

	body, err := c.get(ctx, fmt.Sprintf("/solr/%s/select", c.cfg.Collection), params)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", c.cfg.Collection, err)
	}
	return body, nil
}

// Count returns the collection's total document count.
func (c *Client) Count(ctx context.Context) (int, error) {
	body, err := c.QueryRaw(ctx, QueryParams{Query: "*:*", Rows: 0})
	if err != nil {
		return 0, err
	}
	var resp struct {
		Response struct {
			NumFound int `json:"numFound"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return resp.Response.NumFound, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solr returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
