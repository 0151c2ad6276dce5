package v1

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/boardroom/ai/board"
)

const (
	maxAttachments     = 8
	maxAttachmentBytes = 20 << 20
)

func validateAttachments(attachments []board.Attachment) error {
	if len(attachments) > maxAttachments {
		return errors.Errorf("at most %d attachments per turn", maxAttachments)
	}
	for i, a := range attachments {
		if strings.TrimSpace(a.MimeType) == "" {
			return errors.Errorf("attachment %d has no mime type", i)
		}
		if len(a.Data) == 0 {
			return errors.Errorf("attachment %d is empty", i)
		}
		if len(a.Data) > maxAttachmentBytes {
			return errors.Errorf("attachment %d exceeds %d bytes", i, maxAttachmentBytes)
		}
	}
	return nil
}
