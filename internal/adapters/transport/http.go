// Package transport implements the raw HTTP boundary the protocol client
// posts through.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openvending/vending/internal/ports"
)

const (
	// Every outbound call gets this budget; hitting it surfaces as a
	// transport failure, never a hang.
	DefaultRequestTimeout = 15 * time.Second

	maxResponseBytes = 8 << 20
)

type Client struct {
	httpClient     *http.Client
	requestTimeout time.Duration
}

var _ ports.Transport = (*Client)(nil)

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		requestTimeout: timeout,
	}
}

func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (ports.TransportResponse, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ports.TransportResponse{}, fmt.Errorf("create request: %w", err)
	}
	return c.do(request, headers)
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (ports.TransportResponse, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.TransportResponse{}, fmt.Errorf("create request: %w", err)
	}
	return c.do(request, headers)
}

func (c *Client) do(request *http.Request, headers map[string]string) (ports.TransportResponse, error) {
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return ports.TransportResponse{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return ports.TransportResponse{}, fmt.Errorf("read response body: %w", err)
	}

	return ports.TransportResponse{Status: response.StatusCode, Body: data}, nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}
