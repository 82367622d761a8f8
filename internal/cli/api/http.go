package api

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/middleware"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error — ответ сервера с кодом не из диапазона 2xx.
type Error struct {
	Status int
	Body   middleware.ErrorBody
	Raw    string
}

func (e *Error) Error() string {
	if e.Body.Kind == "" {
		return fmt.Sprintf("server status %d: %s", e.Status, e.Raw)
	}
	msg := fmt.Sprintf("server status %d: %s: %s", e.Status, e.Body.Kind, e.Body.Message)
	if e.Body.Field != "" {
		msg += " (field " + e.Body.Field + ")"
	}
	if e.Body.Retryable {
		msg += ", retry later"
	}
	return msg
}

// Kind возвращает тип ошибки сервера, если он распознан.
func (e *Error) Kind() apperr.Kind { return e.Body.Kind }

// Client — HTTP-клиент marketplace с bearer-авторизацией.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Do отправляет запрос и декодирует JSON-ответ в out (если out != nil).
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Raw: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, &apiErr.Body)
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	return c.Do(ctx, http.MethodPost, path, payload, out)
}
