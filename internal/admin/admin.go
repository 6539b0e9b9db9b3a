// Package admin exposes the manual operator commands. They run outside the
// registration flow and must stay callable even when it is broken.
package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/mailer"
)

type Handler struct {
	notifier    mailer.Notifier
	msgr        lineapi.Messenger
	adminUserID string
	log         *zap.SugaredLogger
}

func New(notifier mailer.Notifier, msgr lineapi.Messenger, adminUserID string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		notifier:    notifier,
		msgr:        msgr,
		adminUserID: adminUserID,
		log:         log,
	}
}

// SendTestEmail handles POST /commands/send-test-email: it exercises the
// SMTP path end to end and, when an admin user is configured, confirms via
// a LINE push message.
func (h *Handler) SendTestEmail(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.notifier.Send(ctx, "Test subject", "This is a test email from the registration bot."); err != nil {
		h.log.Errorw("test email failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to send test email: %v", err),
		})
		return
	}
	if h.adminUserID != "" {
		if err := h.msgr.Push(ctx, h.adminUserID, "Test email sent."); err != nil {
			// Push is a courtesy; the email already went out.
			h.log.Warnw("admin push failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test email sent successfully."})
}
