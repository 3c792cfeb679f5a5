package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	appanalyses "github.com/bryanwahyu/pcap-insight/internal/application/analyses"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultServer is used when no server address is given.
const DefaultServer = "http://localhost:5000"

// ErrNotFound is returned when the server has no analysis under an id.
var ErrNotFound = errors.New("analysis not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to the analysis API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New returns a client for server. The upload timeout covers the analyzer
// delay plus transfer time of large captures.
func New(server, apiKey string) *Client {
	if server == "" {
		server = DefaultServer
	}
	return &Client{
		BaseURL: strings.TrimRight(server, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// Analyze uploads the capture at path and returns the analysis view.
func (c *Client) Analyze(ctx context.Context, path string) (*appanalyses.View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/analyze", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var v appanalyses.View
	if err := c.do(req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns every stored analysis, newest first.
func (c *Client) List(ctx context.Context) ([]*domain.Analysis, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/analyses", nil)
	if err != nil {
		return nil, err
	}
	var list []*domain.Analysis
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Show fetches one analysis; q filters and orders its IOCs server side.
func (c *Client) Show(ctx context.Context, id string, q domain.IOCQuery) (*appanalyses.View, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	if q.SortBy != "" {
		params.Set("sort", q.SortBy)
	}
	if q.Asc {
		params.Set("order", "asc")
	}
	path := "/api/analysis/" + url.PathEscape(id)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var v appanalyses.View
	if err := c.do(req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Report asks for the report of one analysis.
func (c *Client) Report(ctx context.Context, id string) (*appanalyses.ReportStub, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/report/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var stub appanalyses.ReportStub
	if err := c.do(req, &stub); err != nil {
		return nil, err
	}
	return &stub, nil
}

// Delete removes one analysis. Unknown ids are not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/analysis/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, body.Error)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
