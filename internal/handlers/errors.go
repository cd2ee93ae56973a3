package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/chat"
	"campus-chat/internal/storage"
)

// writeChatError maps domain errors to HTTP status codes. Unknown errors become 500
// with the given message; details stay in the logs.
func writeChatError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, chat.ErrSurfaceNotFound):
		status, msg = http.StatusNotFound, "chat not found"
	case errors.Is(err, chat.ErrNotAMember):
		status, msg = http.StatusForbidden, "not a lounge member"
	case errors.Is(err, chat.ErrNotAParticipant):
		status, msg = http.StatusForbidden, "not a match participant"
	case errors.Is(err, chat.ErrEmptyMessage):
		status, msg = http.StatusBadRequest, "message must contain text or an image"
	case errors.Is(err, chat.ErrInvalidRecipient):
		status, msg = http.StatusBadRequest, "recipient is not part of this match"
	case errors.Is(err, chat.ErrInvalidParent), errors.Is(err, chat.ErrInvalidMatch), errors.Is(err, chat.ErrUnknownSurface):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrNotAnImage):
		status, msg = http.StatusBadRequest, "upload must be an image"
	case errors.Is(err, storage.ErrTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "image too large"
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func isForbidden(err error) bool {
	return errors.Is(err, chat.ErrNotAMember) || errors.Is(err, chat.ErrNotAParticipant)
}

func isUploadRejection(err error) bool {
	return errors.Is(err, storage.ErrNotAnImage) || errors.Is(err, storage.ErrTooLarge)
}
