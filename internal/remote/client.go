// Package remote talks to a dealboard API server. Its Client satisfies the
// board's DealStore, so a board can run against a remote system of record.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
)

const defaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error reply is read.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx replies other than 404.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("remote: HTTP %d", e.Code)
	}
	return fmt.Sprintf("remote: HTTP %d: %s", e.Code, e.Msg)
}

// Client wraps http.Client with helpers for the deal API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// SignToken issues an HS256 bearer token for subject, valid for ttl.
func SignToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (c *Client) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	var d domain.Deal
	if err := c.do(ctx, http.MethodGet, "/api/deals/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Update replaces the stored deal and returns the server's copy.
func (c *Client) Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	var out domain.Deal
	if err := c.do(ctx, http.MethodPut, "/api/deals/"+url.PathEscape(d.ID), d.ForUpdate(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch sends a partial update.
func (c *Client) Patch(ctx context.Context, id string, patch domain.DealPatch) (*domain.Deal, error) {
	var out domain.Deal
	if err := c.do(ctx, http.MethodPatch, "/api/deals/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	q := url.Values{}
	if f.PipelineID != "" {
		q.Set("pipelineId", f.PipelineID)
	}
	if f.StageID != "" {
		q.Set("stageId", f.StageID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.IncludeArchived {
		q.Set("includeArchived", strconv.FormatBool(true))
	}
	path := "/api/deals"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []*domain.Deal
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	var p domain.Pipeline
	if err := c.do(ctx, http.MethodGet, "/api/pipelines/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPipelines(ctx context.Context) ([]*domain.Pipeline, error) {
	var out []*domain.Pipeline
	if err := c.do(ctx, http.MethodGet, "/api/pipelines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		buf, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := sonic.ConfigStd.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("remote: %s: %w", msg, domain.ErrNotFound)
	case http.StatusBadRequest:
		return domain.Invalidf("remote: %s", msg)
	}
	return &StatusError{Code: resp.StatusCode, Msg: msg}
}

// PipelineReader exposes the client's pipeline lookups under the names the
// local pipeline service uses.
type PipelineReader struct {
	c *Client
}

func (c *Client) Pipelines() PipelineReader {
	return PipelineReader{c: c}
}

func (r PipelineReader) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	return r.c.GetPipeline(ctx, id)
}

func (r PipelineReader) List(ctx context.Context) ([]*domain.Pipeline, error) {
	return r.c.ListPipelines(ctx)
}
