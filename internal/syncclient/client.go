package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/event"
)

// defaultTimeout bounds every remote call; a hung server must not wedge the
// sync pass forever.
const defaultTimeout = 15 * time.Second

// Client talks to the remote event store. It owns no state beyond its base
// URL and credentials.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	log     zerolog.Logger
}

// New creates a client for the server at baseURL. token may be empty for the
// pre-enrollment operations (GenerateCode, GenerateToken, Login).
func New(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// pushRequest is the POST /events body.
type pushRequest struct {
	Event event.Event `json:"event"`
}

// listResponse is the GET /events body.
type listResponse struct {
	Events event.Collection `json:"events"`
}

// errorResponse is the JSON error body the server attaches to 4xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// Push submits one event for durable remote storage. Idempotent by event ID:
// the server deduplicates, so retrying a push after an ambiguous failure is
// always safe.
func (c *Client) Push(ctx context.Context, ev event.Event) error {
	resp, err := c.do(ctx, http.MethodPost, "/events", pushRequest{Event: ev}, true)
	if err != nil {
		return &Error{Kind: KindTransient, Op: "push", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	return c.classify("push", resp)
}

// List returns all events visible to the caller's identity.
func (c *Client) List(ctx context.Context) (event.Collection, error) {
	resp, err := c.do(ctx, http.MethodGet, "/events", nil, true)
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: "list", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify("list", resp)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Error{Kind: KindTransient, Op: "list", Message: "undecodable response", Err: err}
	}
	return body.Events, nil
}

// do issues one request. Body (when non-nil) is JSON-encoded; withAuth
// attaches the bearer token.
func (c *Client) do(ctx context.Context, method, path string, body any, withAuth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpc.Do(req)
}

// classify maps a non-success response to the error taxonomy: 401 is an
// expired or invalid credential, any other 4xx is a validation rejection,
// everything else is transient.
func (c *Client) classify(op string, resp *http.Response) error {
	msg := serverMessage(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &Error{Kind: KindAuthExpired, Op: op, Message: msg}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &Error{Kind: KindRejected, Op: op, Message: msg}
	default:
		return &Error{Kind: KindTransient, Op: op, Message: msg}
	}
}

// serverMessage extracts the JSON error body, falling back to the status.
func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body errorResponse
		if jsonErr := json.Unmarshal(data, &body); jsonErr == nil && body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("server returned %s", resp.Status)
}
