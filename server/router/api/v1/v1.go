package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/boardroom/ai/agents/orchestrator"
	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/session"
	"github.com/hrygo/boardroom/internal/profile"
)

// MaxRequestBody bounds request bodies, attachments included.
const MaxRequestBody = "32M"

// APIV1Service serves the boardroom JSON API.
type APIV1Service struct {
	Profile      *profile.Profile
	Sessions     *session.Manager
	Orchestrator *orchestrator.Orchestrator

	// OnSessionCreated is called after a session is registered.
	OnSessionCreated func()
}

func NewAPIV1Service(profile *profile.Profile, sessions *session.Manager, orch *orchestrator.Orchestrator) *APIV1Service {
	return &APIV1Service{
		Profile:      profile,
		Sessions:     sessions,
		Orchestrator: orch,
	}
}

// RegisterRoutes registers the /api/v1 routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	corsHandler := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	})

	g := echoServer.Group("/api/v1", corsHandler, middleware.BodyLimit(MaxRequestBody))

	g.GET("/prompts/suggestions", s.ListSuggestions)
	g.GET("/modes", s.ListModes)

	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions/:id", s.GetSession)
	g.DELETE("/sessions/:id", s.DeleteSession)

	g.POST("/sessions/:id/turns", s.SubmitTurn)
	g.POST("/sessions/:id/mode", s.SelectMode)

	g.GET("/sessions/:id/summary", s.GetSummary)
	g.GET("/sessions/:id/agents/:agent", s.GetBriefing)
	g.POST("/sessions/:id/agents/:agent", s.PostAgentReport)

	g.GET("/sessions/:id/export/transcript", s.ExportTranscript)
	g.GET("/sessions/:id/messages/:msgID/export", s.ExportMessage)
	g.GET("/sessions/:id/messages/:msgID/deck", s.ExportDeck)
}

// toHTTPError maps core errors to HTTP errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrTurnInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, board.ErrContextIncomplete),
		errors.Is(err, board.ErrUnknownMode),
		errors.Is(err, orchestrator.ErrEmptyTurn):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		slog.Error("api: unexpected error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
