// Package webhook receives LINE platform callbacks, verifies their
// signature, and dispatches text commands to the registration service.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/metrics"
	"linebot-registration/internal/registration"
)

const (
	replyOneOnOneOnly = "Sorry, this bot only works in one-on-one chats."
	replyUsage        = "I got your message! Try \"register\", \"query <number>\" or \"cancel <number>\"."
	replyNeedNumber   = "Please give a registration number, e.g. \"query 12\"."
	replyFailed       = "Sorry, something went wrong. Please try again later."
)

type Handler struct {
	channelSecret string
	svc           *registration.Service
	msgr          lineapi.Messenger
	metrics       *metrics.Metrics
	log           *zap.SugaredLogger
}

func New(channelSecret string, svc *registration.Service, msgr lineapi.Messenger, m *metrics.Metrics, log *zap.SugaredLogger) *Handler {
	return &Handler{
		channelSecret: channelSecret,
		svc:           svc,
		msgr:          msgr,
		metrics:       m,
		log:           log,
	}
}

// Callback handles POST /callback. Events within one delivery are handled
// concurrently; the platform only needs the acknowledgment.
func (h *Handler) Callback(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.log.Errorw("webhook signature rejected", "error", err)
			c.Status(http.StatusBadRequest)
		} else {
			h.log.Errorw("webhook parse failed", "error", err)
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, event := range cb.Events {
		ev, ok := event.(webhook.MessageEvent)
		if !ok {
			h.metrics.ObserveEvent("ignored")
			continue
		}
		msg, ok := ev.Message.(webhook.TextMessageContent)
		if !ok {
			h.metrics.ObserveEvent("non_text")
			continue
		}
		g.Go(func() error {
			h.dispatch(ctx, ev, msg.Text)
			return nil
		})
	}
	_ = g.Wait()

	c.String(http.StatusOK, "OK")
}

// dispatch routes one text message. Errors are answered with a generic
// reply; the platform surfaces nothing more detailed to the user anyway.
func (h *Handler) dispatch(ctx context.Context, ev webhook.MessageEvent, text string) {
	src, ok := ev.Source.(webhook.UserSource)
	if !ok {
		h.metrics.ObserveEvent("non_user_source")
		h.reply(ctx, ev.ReplyToken, replyOneOnOneOnly)
		return
	}

	regEv := registration.Event{
		UserID:     src.UserId,
		Text:       text,
		ReplyToken: ev.ReplyToken,
		Timestamp:  time.UnixMilli(ev.Timestamp),
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		h.metrics.ObserveEvent("unknown_command")
		h.reply(ctx, ev.ReplyToken, replyUsage)
		return
	}

	switch strings.ToLower(fields[0]) {
	case "register":
		h.metrics.ObserveEvent("register")
		if err := h.svc.Register(ctx, regEv); err != nil {
			h.log.Errorw("registration aborted", "user_id", src.UserId, "error", err)
			h.reply(ctx, ev.ReplyToken, replyFailed)
		}
	case "query":
		h.metrics.ObserveEvent("query")
		seq, ok := sequenceArg(fields)
		if !ok {
			h.reply(ctx, ev.ReplyToken, replyNeedNumber)
			return
		}
		if err := h.svc.Query(ctx, regEv, seq); err != nil {
			h.log.Errorw("query failed", "user_id", src.UserId, "sequence", seq, "error", err)
			h.reply(ctx, ev.ReplyToken, replyFailed)
		}
	case "cancel":
		h.metrics.ObserveEvent("cancel")
		seq, ok := sequenceArg(fields)
		if !ok {
			h.reply(ctx, ev.ReplyToken, replyNeedNumber)
			return
		}
		if err := h.svc.Cancel(ctx, regEv, seq); err != nil {
			h.log.Errorw("cancel failed", "user_id", src.UserId, "sequence", seq, "error", err)
			h.reply(ctx, ev.ReplyToken, replyFailed)
		}
	default:
		h.metrics.ObserveEvent("unknown_command")
		h.reply(ctx, ev.ReplyToken, replyUsage)
	}
}

func (h *Handler) reply(ctx context.Context, replyToken, text string) {
	if err := h.msgr.Reply(ctx, replyToken, text); err != nil {
		h.log.Errorw("reply failed", "error", err)
	}
}

func sequenceArg(fields []string) (int, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	seq, err := strconv.Atoi(fields[1])
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}
