// Package export renders session artifacts for download: the strategic brief
// text file, the conversation transcript and generated decks as Markdown or HTML.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/boardroom/ai/board"
)

// BriefFileName is the download name of an exported model message.
const BriefFileName = "Executive_Strategy.txt"

// ExportThreshold is the content length above which a model message is
// offered as a download.
const ExportThreshold = 500

// Exportable reports whether msg is long enough to be offered as a brief.
func Exportable(msg board.Message) bool {
	return msg.Role == board.RoleModel && len(msg.Content) > ExportThreshold
}

// IsHeading reports whether a line of plain model output is a section label:
// an uppercase line shorter than 150 characters with at least one letter.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) >= 150 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// Transcript renders the whole conversation as plain text.
func Transcript(ctx board.StartupContext, history []board.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BOARDROOM TRANSCRIPT: %s\n", ctx.Name)
	if ctx.Stage != "" {
		fmt.Fprintf(&sb, "Stage: %s\n", ctx.Stage)
	}
	fmt.Fprintf(&sb, "Goal: %s\n", ctx.Goal)

	for _, msg := range history {
		sb.WriteString("\n")
		sb.WriteString(speaker(msg))
		sb.WriteString(" [")
		sb.WriteString(msg.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		sb.WriteString("]\n")

		for _, group := range [][]board.Attachment{msg.Images, msg.Files} {
			for _, a := range group {
				name := a.FileName
				if name == "" {
					name = a.MimeType
				}
				fmt.Fprintf(&sb, "(attachment: %s, %d bytes)\n", name, len(a.Data))
			}
		}
		if content := strings.TrimSpace(msg.Content); content != "" {
			sb.WriteString(content)
			sb.WriteString("\n")
		}
		if msg.IsDeckResult {
			for i, s := range msg.Slides {
				fmt.Fprintf(&sb, "  %d. [%s] %s\n", i+1, s.LayoutType, s.Title)
			}
		}
	}
	return sb.String()
}

func speaker(msg board.Message) string {
	switch {
	case msg.Role == board.RoleUser:
		return "FOUNDER"
	case msg.Agent != "":
		return msg.Agent
	default:
		return "BOARD"
	}
}

// BriefMarkdown converts plain model output into Markdown, promoting
// uppercase label lines to headings.
func BriefMarkdown(content string) string {
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsHeading(line) {
			sb.WriteString("### ")
			sb.WriteString(line)
			sb.WriteString("\n\n")
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// DeckMarkdown renders slides in order. Slide images are embedded as data
// URLs and chart data as a table.
func DeckMarkdown(title string, slides []board.PitchDeckSlide) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}
	for i, s := range slides {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, s.Title)
		fmt.Fprintf(&sb, "*%s*\n\n", s.LayoutType)
		if s.HasImage() {
			mime := s.ImageMimeType
			if mime == "" {
				mime = "image/png"
			}
			fmt.Fprintf(&sb, "![%s](data:%s;base64,%s)\n\n", s.Title, mime, base64.StdEncoding.EncodeToString(s.Image))
		}
		sb.WriteString(BriefMarkdown(s.Content))
		if len(s.ChartData) > 0 {
			sb.WriteString("| Metric | Value |\n| --- | ---: |\n")
			for _, p := range s.ChartData {
				fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(p.Label), strconv.FormatFloat(p.Value, 'f', -1, 64))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders Markdown to an HTML fragment. Raw HTML in the input is omitted.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// DeckHTML renders slides as an HTML fragment.
func DeckHTML(title string, slides []board.PitchDeckSlide) (string, error) {
	return HTML(DeckMarkdown(title, slides))
}
