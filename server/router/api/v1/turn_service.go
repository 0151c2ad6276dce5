package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/boardroom/ai/agents/orchestrator"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/observability/logging"
)

// TurnRequest is the body of a turn submission.
type TurnRequest struct {
	Text        string             `json:"text"`
	Attachments []board.Attachment `json:"attachments,omitempty"`
	Mode        string             `json:"mode,omitempty"`
}

// ModeRequest is the body of a mode selection.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// SubmitTurn runs one turn. With Accept: text/event-stream the indicator
// events are streamed as they happen, otherwise the final message is
// returned as JSON.
func (s *APIV1Service) SubmitTurn(c echo.Context) error {
	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid turn")
	}
	if err := validateAttachments(req.Attachments); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.runTurn(c, orchestrator.TurnInput{
		Text:        req.Text,
		Attachments: req.Attachments,
		Mode:        board.FundraisingMode(req.Mode),
	})
}

// SelectMode answers the mode selection interstitial.
func (s *APIV1Service) SelectMode(c echo.Context) error {
	var req ModeRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Mode) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "mode is required")
	}
	return s.runTurn(c, orchestrator.TurnInput{Mode: board.FundraisingMode(req.Mode)})
}

func (s *APIV1Service) runTurn(c echo.Context, in orchestrator.TurnInput) error {
	sessionID := c.Param("id")
	ctx := logging.WithSession(c.Request().Context(), sessionID)

	if !acceptsEventStream(c.Request()) {
		msg, err := s.Orchestrator.SubmitTurn(ctx, sessionID, in, nil)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, msg)
	}

	stream := newEventStream(c.Response())
	msg, err := s.Orchestrator.SubmitTurn(ctx, sessionID, in, stream.send)
	if err != nil {
		if !stream.started() {
			return toHTTPError(err)
		}
		logging.FromContext(ctx).Warn("api: turn failed after stream start", "error", err)
		return nil
	}
	if err := stream.send("done", msg); err != nil {
		logging.FromContext(ctx).Debug("api: client went away", "error", err)
	}
	return nil
}

func acceptsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), "text/event-stream")
}

// eventStream writes server-sent events. Headers are written on the first
// event so that errors raised before the turn starts still map to a status.
type eventStream struct {
	mu      sync.Mutex
	w       *echo.Response
	writing bool
}

func newEventStream(w *echo.Response) *eventStream {
	return &eventStream{w: w}
}

func (e *eventStream) started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writing
}

func (e *eventStream) send(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.writing {
		h := e.w.Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		e.w.WriteHeader(http.StatusOK)
		e.writing = true
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	e.w.Flush()
	return nil
}
