// Package widget implements the chat session controller: the conversation
// history, the single-flight pending guard, and the idle/awaiting-response
// state machine around one conversational round-trip.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/floatchat/floatchat/internal/models"
	"github.com/floatchat/floatchat/internal/session"
)

// Converser relays a conversation transcript to a text-generation backend
// and returns the assistant reply.
type Converser interface {
	Converse(ctx context.Context, turns []models.Turn) (string, error)
}

// View receives the controller's UI state transitions. Implementations render
// the typing indicator (and disable the send control while it shows) and
// append turns to the message list. The DOM itself is the view's concern, not
// the controller's.
type View interface {
	SetTyping(on bool)
	AppendTurn(turn models.Turn)
}

// State is the controller's submit state.
type State string

const (
	// StateIdle means no round-trip is in flight.
	StateIdle State = "idle"
	// StateAwaitingResponse means one request is in flight. Further submits
	// are no-ops until it settles.
	StateAwaitingResponse State = "awaiting-response"
)

var (
	// ErrEmptyMessage rejects empty or whitespace-only input. The rejection
	// happens before any state transition or history mutation.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy rejects a submit while a round-trip is already in flight.
	ErrBusy = errors.New("a request is already in flight")
)

// Options configure a Controller.
type Options struct {
	// ClearOnClose wipes the history when the dialog closes. Widget variants
	// in the wild disagree on this behavior, so it is an explicit choice
	// rather than a default.
	ClearOnClose bool
}

// Controller owns a widget's conversation state. Each widget instance gets
// its own controller; there is no shared global state between them.
type Controller struct {
	store     *session.Store
	converser Converser
	view      View
	opts      Options

	mu      sync.Mutex
	pending bool

	logger *slog.Logger
}

// New creates a Controller with an empty session.
func New(converser Converser, view View, opts Options, logger *slog.Logger) *Controller {
	return &Controller{
		store:     session.NewStore(),
		converser: converser,
		view:      view,
		opts:      opts,
		logger:    logger.With(slog.String("module", "widget")),
	}
}

// Submit runs one conversational round-trip: append the user turn, show the
// typing indicator, relay the transcript, append the reply. At most one
// submit is in flight at a time; a submit while awaiting a response returns
// ErrBusy without touching history or the network. The pending guard and the
// typing indicator are released in a deferred block, so the send control
// always comes back even when the backend fails.
//
// A failed round-trip is not returned as an error: it becomes a visible
// error turn in the transcript, and the user resubmitting is the recovery
// path.
func (c *Controller) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	c.mu.Unlock()

	c.view.SetTyping(true)
	defer func() {
		c.view.SetTyping(false)
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	c.append(models.Turn{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})

	reply, err := c.converser.Converse(ctx, c.transcript())
	if err != nil {
		c.logger.Error("Round-trip failed", slog.String("err", err.Error()))
		c.append(models.Turn{
			ID:        uuid.New().String(),
			Role:      models.RoleAssistant,
			Content:   err.Error(),
			Timestamp: time.Now(),
			IsError:   true,
		})
		return nil
	}

	c.append(models.Turn{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	})
	return nil
}

func (c *Controller) append(turn models.Turn) {
	c.store.Append(turn)
	c.view.AppendTurn(turn)
}

// transcript returns the turns to relay. Error turns exist only for the
// user's context and are skipped.
func (c *Controller) transcript() []models.Turn {
	all := c.store.Turns()
	turns := make([]models.Turn, 0, len(all))
	for _, t := range all {
		if t.IsError {
			continue
		}
		turns = append(turns, t)
	}
	return turns
}

// State reports whether a round-trip is in flight.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return StateAwaitingResponse
	}
	return StateIdle
}

// Turns returns a snapshot of the session history, error turns included.
func (c *Controller) Turns() []models.Turn {
	return c.store.Turns()
}

// Reset clears the session history.
func (c *Controller) Reset() {
	c.store.Clear()
}

// Close is called when the dialog closes. The history is wiped only when the
// controller was configured with ClearOnClose.
func (c *Controller) Close() {
	if c.opts.ClearOnClose {
		c.store.Clear()
	}
}
