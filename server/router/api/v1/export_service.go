package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/boardroom/ai/board"
	"github.com/hrygo/boardroom/ai/export"
	"github.com/hrygo/boardroom/ai/session"
)

// ExportTranscript downloads the conversation as plain text.
func (s *APIV1Service) ExportTranscript(c echo.Context) error {
	store, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	body := export.Transcript(store.Context(), store.History())
	return attachment(c, "Boardroom_Transcript.txt", echo.MIMETextPlainCharsetUTF8, body)
}

// ExportMessage downloads one long model message as the strategic brief.
func (s *APIV1Service) ExportMessage(c echo.Context) error {
	_, msg, err := s.lookupMessage(c)
	if err != nil {
		return err
	}
	if !export.Exportable(msg) {
		return echo.NewHTTPError(http.StatusBadRequest, "message is not exportable")
	}
	return attachment(c, export.BriefFileName, echo.MIMETextPlainCharsetUTF8, msg.Content)
}

// ExportDeck renders a deck message as Markdown (default) or HTML.
func (s *APIV1Service) ExportDeck(c echo.Context) error {
	store, msg, err := s.lookupMessage(c)
	if err != nil {
		return err
	}
	if !msg.IsDeckResult {
		return echo.NewHTTPError(http.StatusBadRequest, "message is not a deck")
	}

	title := store.Context().Name + " Pitch Deck"
	switch strings.ToLower(c.QueryParam("format")) {
	case "", "md", "markdown":
		return attachment(c, "Pitch_Deck.md", "text/markdown; charset=UTF-8", export.DeckMarkdown(title, msg.Slides))
	case "html":
		body, err := export.DeckHTML(title, msg.Slides)
		if err != nil {
			return toHTTPError(err)
		}
		return c.HTML(http.StatusOK, body)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be md or html")
	}
}

func (s *APIV1Service) lookupMessage(c echo.Context) (*session.Store, board.Message, error) {
	store, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		return nil, board.Message{}, toHTTPError(err)
	}
	msg, ok := store.Message(c.Param("msgID"))
	if !ok {
		return nil, board.Message{}, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return store, msg, nil
}

func attachment(c echo.Context, name, contentType, body string) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, []byte(body))
}
