package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	agent "github.com/hrygo/boardroom/ai/agents"
)

// GetSummary returns the executive summary of a session.
func (s *APIV1Service) GetSummary(c echo.Context) error {
	overview, err := s.Orchestrator.GenerateOverviewSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, overview)
}

// GetBriefing returns the mandate report of one board seat without
// touching the conversation.
func (s *APIV1Service) GetBriefing(c echo.Context) error {
	a, force, err := briefingParams(c)
	if err != nil {
		return err
	}
	b, err := s.Orchestrator.GenerateAgentBriefing(c.Request().Context(), c.Param("id"), a, force)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

// PostAgentReport appends the mandate report of one board seat to the
// conversation.
func (s *APIV1Service) PostAgentReport(c echo.Context) error {
	a, force, err := briefingParams(c)
	if err != nil {
		return err
	}
	msg, err := s.Orchestrator.PostAgentReport(c.Request().Context(), c.Param("id"), a, force)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func briefingParams(c echo.Context) (agent.AgentType, bool, error) {
	a, err := agent.ParseAgentType(c.Param("agent"))
	if err != nil {
		return "", false, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	force := false
	if raw := c.QueryParam("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			return "", false, echo.NewHTTPError(http.StatusBadRequest, "force must be a boolean")
		}
	}
	return a, force, nil
}
