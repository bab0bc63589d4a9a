package http_utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/benmeehan/aziot-sas-agent/internal/models"
)

// maxResponseSize bounds the body read from a local service.
const maxResponseSize = 1 << 20

// ErrMalformedResponse is returned when a 2xx response body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// StatusError is returned when a local service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// UnixSocketClient talks JSON over HTTP to a service listening on a unix socket.
type UnixSocketClient struct {
	socketPath string
	baseURL    string
	httpClient *http.Client
}

// NewUnixSocketClient returns a client dialing socketPath for every request.
// host only fills the Host header of the requests.
func NewUnixSocketClient(socketPath, host string) *UnixSocketClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var dialer net.Dialer
			return dialer.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: true,
	}

	return &UnixSocketClient{
		socketPath: socketPath,
		baseURL:    "http://" + host,
		httpClient: &http.Client{Transport: transport},
	}
}

// SocketPath returns the socket the client dials.
func (c *UnixSocketClient) SocketPath() string {
	return c.socketPath
}

// DoJSON sends in (if not nil) as a JSON body and decodes a 2xx response into out (if not nil).
// Transport failures and non-2xx statuses (as *StatusError) are returned wrapped;
// an undecodable body is reported with ErrMalformedResponse.
func (c *UnixSocketClient) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.socketPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", c.socketPath, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp models.ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
