// Package client talks to the schemaboard API. *Client satisfies the sync
// controller's Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schemaboard/internal/errs"
	"schemaboard/internal/models"
	schemasync "schemaboard/internal/sync"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func schemaPath(projectID string) string {
	return "/api/v1/projects/" + url.PathEscape(projectID) + "/schema"
}

// GetSchema fetches the stored schema. An unknown project is an errs
// NotFound.
func (c *Client) GetSchema(ctx context.Context, projectID string) (models.SchemaDocument, error) {
	var doc models.SchemaDocument
	if err := c.do(ctx, http.MethodGet, schemaPath(projectID), nil, &doc); err != nil {
		return models.SchemaDocument{}, err
	}
	return doc, nil
}

// PutSchema replaces the stored schema with doc.
func (c *Client) PutSchema(ctx context.Context, projectID string, doc models.SchemaDocument) (schemasync.SaveResult, error) {
	var res schemasync.SaveResult
	if err := c.do(ctx, http.MethodPut, schemaPath(projectID), doc, &res); err != nil {
		return schemasync.SaveResult{}, err
	}
	return res, nil
}

// GetSnapshot fetches an archived version.
func (c *Client) GetSnapshot(ctx context.Context, projectID string, version int64) (models.SchemaDocument, error) {
	var doc models.SchemaDocument
	path := fmt.Sprintf("%s/versions/%d", schemaPath(projectID), version)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return models.SchemaDocument{}, err
	}
	return doc, nil
}

// Mermaid fetches the server rendered ER diagram.
func (c *Client) Mermaid(ctx context.Context, projectID string) (string, error) {
	var out struct {
		Mermaid string `json:"mermaid"`
	}
	if err := c.do(ctx, http.MethodGet, schemaPath(projectID)+"/mermaid", nil, &out); err != nil {
		return "", err
	}
	return out.Mermaid, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "encode request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return errs.Wrap(errs.ErrKindTimeout, method+" "+path, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, method+" "+path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return errs.Newf(kindForStatus(resp.StatusCode), "%s %s: %s", method, path, resp.Status)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, "decode response", err)
	}
	if resp.StatusCode >= 300 || env.Status == "error" {
		msg := env.Message
		if env.Error != "" {
			msg += ": " + env.Error
		}
		return errs.New(kindForStatus(resp.StatusCode), msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "decode response data", err)
		}
	}
	return nil
}

func kindForStatus(status int) errs.ErrKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errs.ErrKindInvalidInput
	case http.StatusUnauthorized:
		return errs.ErrKindUnauthenticated
	case http.StatusForbidden:
		return errs.ErrKindPermissionDenied
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return errs.ErrKindTimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
