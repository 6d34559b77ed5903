package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRequest marks requests that can never succeed and should not be
// retried.
var ErrInvalidRequest = errors.New("invalid render request")

// ParseRenderRequest decodes a request message. A missing ID falls back to the
// message key, then to a random UUID.
func ParseRenderRequest(raw RawEvent) (RenderRequest, error) {
	var req RenderRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return RenderRequest{}, fmt.Errorf("parse render request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return RenderRequest{}, err
	}
	return req, nil
}

// Validate checks the fields every request needs.
func (r RenderRequest) Validate() error {
	if r.Product == "" {
		return fmt.Errorf("%w: product is required", ErrInvalidRequest)
	}
	if r.DataFile == "" {
		return fmt.Errorf("%w: data_file is required", ErrInvalidRequest)
	}
	if r.TimeIndex < 0 {
		return fmt.Errorf("%w: negative time_index %d", ErrInvalidRequest, r.TimeIndex)
	}
	if r.Stride < 0 {
		return fmt.Errorf("%w: negative stride %d", ErrInvalidRequest, r.Stride)
	}
	return nil
}

// SerializeProductRendered encodes an event for the sink topic.
func SerializeProductRendered(ev ProductRendered) (OutputEvent, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize rendered event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(ev.RequestID),
		Value: data,
		Headers: map[string]string{
			"product":     ev.Product,
			"rendered_at": ev.RenderedAt.Format(time.RFC3339),
		},
	}, nil
}
