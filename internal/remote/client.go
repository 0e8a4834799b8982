// Package remote fetches the authoritative identity list published by the
// enrollment server at /api/student/list.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/database"
)

var (
	// ErrTransport covers connection failures, timeouts and non-2xx responses.
	ErrTransport = errors.New("remote request failed")
	// ErrUnsuccessful is returned when the server answers success=false.
	ErrUnsuccessful = errors.New("remote reported failure")
	// ErrMalformed is returned when the body cannot be decoded.
	ErrMalformed = errors.New("malformed remote payload")
)

// Record is one identity as published by the remote list.
// A record whose fields cannot be read is kept with Err set so the caller can drop it.
type Record struct {
	ID         int64               `json:"id"`
	FullName   string              `json:"full_name"`
	VectorFace database.WireVector `json:"vector_face"`

	Err error `json:"-"`
}

// UnmarshalJSON decodes one record without failing the surrounding list.
// Numeric strings are accepted as IDs; any other unreadable id is left at zero.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		FullName   json.RawMessage `json:"full_name"`
		VectorFace json.RawMessage `json:"vector_face"`
	}
	*r = Record{}
	if err := json.Unmarshal(data, &raw); err != nil {
		r.Err = fmt.Errorf("record: %w", err)
		return nil
	}

	r.ID = parseID(raw.ID)
	if len(raw.FullName) > 0 && string(raw.FullName) != "null" {
		if err := json.Unmarshal(raw.FullName, &r.FullName); err != nil {
			r.Err = fmt.Errorf("record %d full_name: %w", r.ID, err)
			return nil
		}
	}
	if len(raw.VectorFace) > 0 {
		if err := json.Unmarshal(raw.VectorFace, &r.VectorFace); err != nil {
			r.VectorFace = nil
			r.Err = fmt.Errorf("record %d vector_face: %w", r.ID, err)
			return nil
		}
	}
	return nil
}

func parseID(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Identity converts r to the store representation.
func (r Record) Identity() database.Identity {
	return database.Identity{ID: r.ID, FullName: r.FullName, VectorFace: []float32(r.VectorFace)}
}

// ListResponse is the body of the identity list endpoint.
type ListResponse struct {
	Success bool     `json:"success"`
	Data    []Record `json:"data"`
	Count   int      `json:"count,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Client fetches identity lists over HTTP.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a client for the list at url. A non-positive timeout selects the default.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultFetchTimeoutSeconds * time.Second
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchIdentities retrieves the full identity list. Records are returned unfiltered,
// including ones with Err set.
func (c *Client) FetchIdentities(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxListResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(body, 200))
	}

	var list ListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if !list.Success {
		msg := list.Message
		if msg == "" {
			msg = "no message"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, msg)
	}

	return list.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
