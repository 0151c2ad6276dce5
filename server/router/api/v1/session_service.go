package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/board"
)

// SessionResponse is the wire form of a session.
type SessionResponse struct {
	ID        string               `json:"id"`
	Context   board.StartupContext `json:"context"`
	CreatedAt time.Time            `json:"createdAt"`
	Messages  []board.Message      `json:"messages"`
}

// CreateSession registers a session for the posted startup context.
func (s *APIV1Service) CreateSession(c echo.Context) error {
	var ctx board.StartupContext
	if err := c.Bind(&ctx); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid startup context")
	}

	store, err := s.Sessions.Create(ctx)
	if err != nil {
		return toHTTPError(err)
	}
	if s.OnSessionCreated != nil {
		s.OnSessionCreated()
	}

	return c.JSON(http.StatusCreated, SessionResponse{
		ID:        store.ID(),
		Context:   store.Context(),
		CreatedAt: store.CreatedAt(),
		Messages:  []board.Message{},
	})
}

// GetSession returns the context and full history of a session.
func (s *APIV1Service) GetSession(c echo.Context) error {
	store, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	messages := store.History()
	if messages == nil {
		messages = []board.Message{}
	}
	return c.JSON(http.StatusOK, SessionResponse{
		ID:        store.ID(),
		Context:   store.Context(),
		CreatedAt: store.CreatedAt(),
		Messages:  messages,
	})
}

// DeleteSession drops a session.
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	if !s.Sessions.Remove(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSuggestions returns the prompt suggestion pills.
func (s *APIV1Service) ListSuggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"suggestions": s.Orchestrator.Prompts().Suggestions,
	})
}

// ModesResponse lists the selectable fundraising modes and board seats.
type ModesResponse struct {
	Label  string                  `json:"label"`
	Modes  []board.FundraisingMode `json:"modes"`
	Agents []agent.AgentType       `json:"agents"`
}

// ListModes returns the fundraising modes offered by the mode selection step.
func (s *APIV1Service) ListModes(c echo.Context) error {
	return c.JSON(http.StatusOK, ModesResponse{
		Label:  s.Orchestrator.Prompts().ModeSelection,
		Modes:  board.FundraisingModes,
		Agents: agent.AllAgents,
	})
}
