package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyRaw is returned when a raw response file is empty.
var ErrEmptyRaw = errors.New("raw response is empty")

// RawMeta describes when and how a response was fetched.
type RawMeta struct {
	FetchedAt time.Time `json:"fetched_at"`
}

// RawResponse is the envelope written by the fetch step:
//
//	{"meta": {"fetched_at": "2026-10-18T06:30:00Z"}, "response": {...}}
type RawResponse struct {
	Meta     RawMeta         `json:"meta"`
	Response json.RawMessage `json:"response"`
}

// NewRawResponse wraps an API body, stamping it with fetchedAt in UTC.
func NewRawResponse(body json.RawMessage, fetchedAt time.Time) *RawResponse {
	return &RawResponse{
		Meta:     RawMeta{FetchedAt: fetchedAt.UTC().Truncate(time.Second)},
		Response: body,
	}
}

// DecodeRawResponse parses a raw response file.
// A file that is not wrapped in the envelope is taken to be a bare API
// response; FetchedAt is then left zero.
func DecodeRawResponse(data []byte) (*RawResponse, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyRaw
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode raw response: %w", err)
	}

	inner, ok := fields["response"]
	if !ok {
		return &RawResponse{Response: json.RawMessage(data)}, nil
	}

	raw := &RawResponse{Response: inner}
	if meta, ok := fields["meta"]; ok {
		// A malformed meta block is not fatal; the payload is what matters.
		_ = json.Unmarshal(meta, &raw.Meta) //nolint:errcheck // best effort
	}
	return raw, nil
}

// Search decodes the wrapped API response.
func (r *RawResponse) Search() (*SearchResponse, error) {
	if len(r.Response) == 0 || bytes.Equal(r.Response, []byte("null")) {
		return &SearchResponse{}, nil
	}
	var resp SearchResponse
	if err := json.Unmarshal(r.Response, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &resp, nil
}

// Encode returns the envelope as indented JSON.
func (r *RawResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
