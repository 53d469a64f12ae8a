// Package handlers wires the widget controller to HTTP: it serves the
// embedded widget page, accepts submits and resets, and pushes UI updates to
// connected widgets over server-sent events.
package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"

	floatchat "github.com/floatchat/floatchat"
	"github.com/floatchat/floatchat/internal/models"
	"github.com/floatchat/floatchat/internal/widget"
)

const errLoggerKey = "err"

const messagesSSETopic = "messages"

// SSE event types for real-time widget updates.
var (
	messagesSSEType = sse.Type("messages")
	typingSSEType   = sse.Type("typing")
)

// Main handles the widget's HTTP surface, managing the SSE server, the HTML
// templates, and the session controller.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	controller *widget.Controller

	logger *slog.Logger
}

// NewMain creates a Main instance around the given converser. It parses the
// embedded templates and initializes the SSE server all widget clients
// subscribe to.
func NewMain(converser widget.Converser, opts widget.Options, logger *slog.Logger) (*Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		floatchat.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, err
	}

	m := &Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, messagesSSETopic},
				}, true
			},
		},
		templates: tmpl,
		logger:    logger.With(slog.String("module", "handlers")),
	}

	m.controller = widget.New(converser, sseView{m: m}, opts, logger)

	return m, nil
}

// HandleSSE serves the event stream the widget page subscribes to.
func (m *Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the SSE server after broadcasting a close
// message, waiting up to 5 seconds for connections to drain. It also closes
// the session controller, which wipes history when configured to do so.
func (m *Main) Shutdown(ctx context.Context) error {
	m.controller.Close()

	e := &sse.Message{Type: sse.Type("closeChat")}
	// The SSE spec requires data on every event
	e.AppendData("bye")
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// sseView implements widget.View by pushing state transitions to every
// connected widget page.
type sseView struct {
	m *Main
}

func (v sseView) SetTyping(on bool) {
	msg := sse.Message{Type: typingSSEType}
	if on {
		msg.AppendData("on")
	} else {
		msg.AppendData("off")
	}

	if err := v.m.sseSrv.Publish(&msg, messagesSSETopic); err != nil {
		v.m.logger.Error("Failed to publish typing state",
			slog.String(errLoggerKey, err.Error()))
	}
}

func (v sseView) AppendTurn(turn models.Turn) {
	rendered, err := v.m.renderTurn(turn)
	if err != nil {
		v.m.logger.Error("Failed to render turn",
			slog.String("turnID", turn.ID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(rendered)

	if err := v.m.sseSrv.Publish(&msg, messagesSSETopic); err != nil {
		v.m.logger.Error("Failed to publish turn",
			slog.String("turnID", turn.ID),
			slog.String(errLoggerKey, err.Error()))
	}
}

func (m *Main) renderTurn(turn models.Turn) (string, error) {
	tv, err := newTurnView(turn)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "turn", tv); err != nil {
		return "", err
	}
	return sb.String(), nil
}
