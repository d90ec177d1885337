package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	countriesCollection = "countries"
	scoresCollection    = "scores"
	maxPerPage          = 500
)

// APIError is a non-2xx response from PocketBase.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pocketbase: %d %s", e.Status, e.Message)
}

// Client talks to the PocketBase records API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	token   string
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type listResponse[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

type listQuery struct {
	filter  string
	sort    string
	perPage int
}

// Authenticate signs in as an admin; later requests carry the token.
func (c *Client) Authenticate(ctx context.Context, identity, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"identity": identity, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/admins/auth-with-password", nil, body, &resp); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	c.token = resp.Token
	return nil
}

// listAll pages through a collection until every matching record is read.
func listAll[T any](ctx context.Context, c *Client, collection string, q listQuery) ([]T, error) {
	perPage := q.perPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	var items []T
	for page := 1; ; page++ {
		resp, err := listPage[T](ctx, c, collection, q, page, perPage)
		if err != nil {
			return nil, err
		}
		items = append(items, resp.Items...)
		if page >= resp.TotalPages || len(resp.Items) == 0 {
			return items, nil
		}
	}
}

func listPage[T any](ctx context.Context, c *Client, collection string, q listQuery, page, perPage int) (listResponse[T], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(perPage))
	if q.filter != "" {
		params.Set("filter", q.filter)
	}
	if q.sort != "" {
		params.Set("sort", q.sort)
	}
	var resp listResponse[T]
	err := c.do(ctx, http.MethodGet, "/api/collections/"+collection+"/records", params, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pbErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&pbErr)
		if pbErr.Message == "" {
			pbErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("pocketbase request failed", "method", method, "path", path, "status", resp.StatusCode, "message", pbErr.Message)
		return &APIError{Status: resp.StatusCode, Message: pbErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// quote renders s as a PocketBase filter string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
