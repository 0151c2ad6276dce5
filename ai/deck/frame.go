package deck

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/hrygo/boardroom/ai/core/llm"
)

// frame center-crops img to the requested aspect ratio. Providers without a
// native 16:9 size return square images. Payloads that cannot be decoded are
// passed through unchanged.
func frame(img *llm.Image, aspect llm.AspectRatio) *llm.Image {
	rw, rh, ok := parseAspect(aspect)
	if !ok || img == nil || len(img.Data) == 0 {
		return img
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		slog.Debug("deck: slide image not decodable, keeping original", "mime", img.MimeType, "error", err)
		return img
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w*rh == h*rw {
		return img
	}
	tw, th := w, w*rh/rw
	if th > h {
		tw, th = h*rw/rh, h
	}
	if tw == 0 || th == 0 {
		return img
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fill(src, tw, th, imaging.Center, imaging.Lanczos), imaging.PNG); err != nil {
		slog.Warn("deck: slide image re-encode failed", "error", err)
		return img
	}
	return &llm.Image{Data: buf.Bytes(), MimeType: "image/png"}
}

func parseAspect(a llm.AspectRatio) (int, int, bool) {
	ws, hs, found := strings.Cut(string(a), ":")
	if !found {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
