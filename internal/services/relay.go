// Package services implements the conversers the widget controller can relay
// conversations through: a plain JSON relay for black-box text-generation
// endpoints, plus OpenAI-compatible and Ollama backends.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/floatchat/floatchat/internal/httpx"
	"github.com/floatchat/floatchat/internal/models"
)

// WireShape selects the request/response shape the backend speaks. The shape
// is resolved once at construction; a relay never mixes the two.
type WireShape string

const (
	// ShapePrompt posts {"prompt": "<text>"} and reads {"result": "<text>"}
	// or a bare JSON string.
	ShapePrompt WireShape = "prompt"
	// ShapeMessages posts {"messages": [{role, content}, ...]} and reads
	// {"output": "<text>"}.
	ShapeMessages WireShape = "messages"
)

// DefaultColdStartWait caps how long the relay sleeps on a loading reply,
// whatever wait the backend estimates.
const DefaultColdStartWait = 30 * time.Second

// ProtocolError reports a response that was received but could not be
// interpreted, a backend that is still loading after the one permitted
// resend, or a transport failure that exhausted its retries.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Relay converses with a black-box text-generation endpoint over single-shot
// JSON POSTs. There is no streaming; one request yields one reply.
type Relay struct {
	path  string
	shape WireShape

	coldStartWait time.Duration

	client *httpx.Client

	logger *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithColdStartWait overrides the upper bound on the cold-start wait.
func WithColdStartWait(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.coldStartWait = d
	}
}

// NewRelay creates a Relay posting to path under the client's base URL,
// speaking the given wire shape.
func NewRelay(client *httpx.Client, path string, shape WireShape, logger *slog.Logger, opts ...RelayOption) Relay {
	r := Relay{
		path:          path,
		shape:         shape,
		coldStartWait: DefaultColdStartWait,
		client:        client,
		logger:        logger.With(slog.String("module", "relay")),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type promptResponse struct {
	Result      *string `json:"result"`
	TookSeconds float64 `json:"took_seconds"`
}

type wireTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Messages []wireTurn `json:"messages"`
}

type messagesResponse struct {
	Output *string `json:"output"`
}

type statusProbe struct {
	Status        string  `json:"status"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Converse sends the transcript and returns the assistant reply. A backend
// that reports it is still loading gets exactly one bounded wait followed by
// a resend of the identical request; a second consecutive loading reply is
// surfaced as an error instead of looping against a cold backend.
func (r Relay) Converse(ctx context.Context, turns []models.Turn) (string, error) {
	body := r.requestBody(turns)

	raw, err := r.client.PostJSON(ctx, r.path, body)
	if err != nil {
		return "", &ProtocolError{Reason: "transport failure", Err: err}
	}

	if wait, loading := coldStart(raw); loading {
		wait = min(wait, r.coldStartWait)
		r.logger.Info("Backend is warming up", slog.Duration("wait", wait))

		if err := sleep(ctx, wait); err != nil {
			return "", &ProtocolError{Reason: "cold-start wait interrupted", Err: err}
		}

		raw, err = r.client.PostJSON(ctx, r.path, body)
		if err != nil {
			return "", &ProtocolError{Reason: "transport failure", Err: err}
		}
		if _, loading = coldStart(raw); loading {
			return "", &ProtocolError{Reason: "backend still loading after retry"}
		}
	}

	return r.extract(raw)
}

func (r Relay) requestBody(turns []models.Turn) any {
	if r.shape == ShapeMessages {
		msgs := make([]wireTurn, len(turns))
		for i, t := range turns {
			msgs[i] = wireTurn{Role: string(t.Role), Content: t.Content}
		}
		return messagesRequest{Messages: msgs}
	}

	// The prompt shape carries only the newest user turn; backends speaking
	// it are stateless about history.
	var prompt string
	if len(turns) > 0 {
		prompt = turns[len(turns)-1].Content
	}
	return promptRequest{Prompt: prompt}
}

func (r Relay) extract(raw json.RawMessage) (string, error) {
	if r.shape == ShapeMessages {
		var res messagesResponse
		if err := json.Unmarshal(raw, &res); err != nil {
			return "", &ProtocolError{Reason: "malformed response", Err: err}
		}
		if res.Output == nil {
			return "", &ProtocolError{Reason: "response has no output field"}
		}
		return *res.Output, nil
	}

	// A bare string reply wins, then the result field, then the raw payload
	// as a fallback so the user always sees something.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var res promptResponse
	if err := json.Unmarshal(raw, &res); err == nil && res.Result != nil {
		return *res.Result, nil
	}
	return string(raw), nil
}

// coldStart reports whether raw is a "model loading" reply and how long the
// backend estimates until it is ready.
func coldStart(raw json.RawMessage) (time.Duration, bool) {
	var probe statusProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, false
	}
	if probe.Status != "loading" {
		return 0, false
	}
	return time.Duration(probe.EstimatedTime * float64(time.Second)), true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
