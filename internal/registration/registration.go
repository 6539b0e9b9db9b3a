// Package registration orchestrates one registration attempt per incoming
// command: allocate the next sequence number, persist the row, confirm to
// the user, notify the administrators. The row append is the durability
// boundary; everything after it is best-effort.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/mailer"
	"linebot-registration/internal/metrics"
	"linebot-registration/internal/sheet"
)

// Event is one parsed, signature-verified text command from the platform.
type Event struct {
	UserID     string
	Text       string
	ReplyToken string
	Timestamp  time.Time
}

type Service struct {
	sheet    sheet.Accessor
	msgr     lineapi.Messenger
	notifier mailer.Notifier
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger

	fallbackName string
}

func New(acc sheet.Accessor, msgr lineapi.Messenger, notifier mailer.Notifier, m *metrics.Metrics, log *zap.SugaredLogger, fallbackName string) *Service {
	return &Service{
		sheet:        acc,
		msgr:         msgr,
		notifier:     notifier,
		metrics:      m,
		log:          log,
		fallbackName: fallbackName,
	}
}

// Register runs one registration attempt.
//
// Sequence allocation is a read-then-append against the worksheet with no
// serialization: two concurrent attempts can observe the same maximum and
// assign the same number. This limitation is accepted and tested, not
// hidden (see DESIGN.md).
//
// An error return means nothing durable happened and no confirmation was
// sent; the caller decides what to tell the user. A nil return means the
// row exists, even if the reply or the notification failed afterwards.
func (s *Service) Register(ctx context.Context, ev Event) error {
	last, err := s.sheet.LastSequence(ctx)
	if err != nil {
		s.metrics.ObserveRegistration("storage_error")
		return fmt.Errorf("read last sequence: %w", err)
	}
	next := last + 1

	name, err := s.msgr.Profile(ctx, ev.UserID)
	if err != nil {
		s.log.Warnw("profile lookup failed, using fallback name",
			"user_id", ev.UserID, "error", err)
		name = s.fallbackName
	}

	registeredAt := ev.Timestamp
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}
	rec := sheet.Record{
		Sequence:     next,
		UserID:       ev.UserID,
		DisplayName:  name,
		RegisteredAt: registeredAt,
		Status:       sheet.StatusPending,
	}
	if err := s.sheet.Append(ctx, rec); err != nil {
		s.metrics.ObserveRegistration("storage_error")
		return fmt.Errorf("append record %d: %w", next, err)
	}

	// The row is durable from here on. Nothing below may undo or mask it.
	if err := s.msgr.Reply(ctx, ev.ReplyToken,
		fmt.Sprintf("Registration complete! Your number is %d.", next)); err != nil {
		s.log.Errorw("confirmation reply failed after append",
			"sequence", next, "user_id", ev.UserID, "error", err)
	}

	status := sheet.StatusProcessed
	if err := s.notify(ctx, rec); err != nil {
		s.log.Errorw("admin notification failed",
			"sequence", next, "error", err)
		s.metrics.ObserveEmail("failed")
		status = sheet.StatusFailed
	} else {
		s.metrics.ObserveEmail("sent")
	}
	if err := s.sheet.UpdateStatus(ctx, next, status); err != nil {
		s.log.Warnw("status update failed",
			"sequence", next, "status", status, "error", err)
	}

	s.metrics.ObserveRegistration("completed")
	s.log.Infow("registration completed",
		"sequence", next, "user_id", ev.UserID, "status", status)
	return nil
}

// Query replies with the stored fields of one registration.
func (s *Service) Query(ctx context.Context, ev Event, seq int) error {
	rec, err := s.sheet.FindBySequence(ctx, seq)
	var text string
	switch {
	case errors.Is(err, sheet.ErrNotFound):
		text = fmt.Sprintf("No registration found for number %d.", seq)
	case err != nil:
		return fmt.Errorf("find record %d: %w", seq, err)
	default:
		text = fmt.Sprintf("Registration %d:\nName: %s\nRegistered: %s\nStatus: %s",
			rec.Sequence, rec.DisplayName, rec.RegisteredAt.Format(sheet.TimeLayout), rec.Status)
	}
	if err := s.msgr.Reply(ctx, ev.ReplyToken, text); err != nil {
		return fmt.Errorf("reply to query: %w", err)
	}
	return nil
}

// Cancel marks one registration canceled and replies with the outcome.
func (s *Service) Cancel(ctx context.Context, ev Event, seq int) error {
	err := s.sheet.UpdateStatus(ctx, seq, sheet.StatusCanceled)
	var text string
	switch {
	case errors.Is(err, sheet.ErrNotFound):
		text = fmt.Sprintf("No registration found for number %d.", seq)
	case err != nil:
		return fmt.Errorf("cancel record %d: %w", seq, err)
	default:
		text = fmt.Sprintf("Registration %d has been canceled.", seq)
		s.log.Infow("registration canceled", "sequence", seq, "user_id", ev.UserID)
	}
	if err := s.msgr.Reply(ctx, ev.ReplyToken, text); err != nil {
		return fmt.Errorf("reply to cancel: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, rec sheet.Record) error {
	subject := fmt.Sprintf("New registration - number %d", rec.Sequence)
	body := fmt.Sprintf("User %s (ID: %s) registered at %s with number %d.\nSee the worksheet for details.",
		rec.DisplayName, rec.UserID, rec.RegisteredAt.Format(sheet.TimeLayout), rec.Sequence)
	return s.notifier.Send(ctx, subject, body)
}
