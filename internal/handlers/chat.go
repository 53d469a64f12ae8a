package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/floatchat/floatchat/internal/models"
	"github.com/floatchat/floatchat/internal/widget"
)

type turnView struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp time.Time
	IsError   bool
}

type widgetPageData struct {
	Turns   []turnView
	Pending bool
}

func newTurnView(turn models.Turn) (turnView, error) {
	content, err := models.RenderContent(turn.Content)
	if err != nil {
		return turnView{}, fmt.Errorf("failed to render turn %s: %w", turn.ID, err)
	}
	return turnView{
		ID:        turn.ID,
		Role:      string(turn.Role),
		Content:   content,
		Timestamp: turn.Timestamp,
		IsError:   turn.IsError,
	}, nil
}

func (m *Main) turnViews() ([]turnView, error) {
	turns := m.controller.Turns()
	views := make([]turnView, len(turns))
	for i, turn := range turns {
		tv, err := newTurnView(turn)
		if err != nil {
			return nil, err
		}
		views[i] = tv
	}
	return views, nil
}

// HandleWidget serves the widget page: the floating launcher, the dialog
// shell, and the transcript rendered so far.
func (m *Main) HandleWidget(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	views, err := m.turnViews()
	if err != nil {
		m.logger.Error("Failed to render turns", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := widgetPageData{
		Turns:   views,
		Pending: m.controller.State() == widget.StateAwaitingResponse,
	}
	if err := m.templates.ExecuteTemplate(w, "widget.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleSend processes a submit from the widget through an HTTP POST with a
// "message" form field. The round-trip runs synchronously; the reply (or a
// visible error turn) reaches the page through the SSE stream. A submit while
// a round-trip is in flight is a no-op answered with 409.
func (m *Main) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if strings.TrimSpace(msg) == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	err := m.controller.Submit(r.Context(), msg)
	switch {
	case errors.Is(err, widget.ErrBusy):
		http.Error(w, "A request is already in flight", http.StatusConflict)
	case errors.Is(err, widget.ErrEmptyMessage):
		http.Error(w, "Message is required", http.StatusBadRequest)
	case err != nil:
		m.logger.Error("Failed to submit message", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleReset clears the session history.
func (m *Main) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.controller.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HandleHistory renders the current transcript as message list markup. The
// widget page uses it to re-hydrate the dialog when it opens.
func (m *Main) HandleHistory(w http.ResponseWriter, r *http.Request) {
	views, err := m.turnViews()
	if err != nil {
		m.logger.Error("Failed to render turns", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "message_list", widgetPageData{Turns: views}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
