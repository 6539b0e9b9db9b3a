package lineapi

import (
	"context"
	"sync"
)

// OutMessage is one captured outbound message.
type OutMessage struct {
	To   string // reply token or push target
	Text string
}

// Fake records outbound traffic for tests.
type Fake struct {
	mu      sync.Mutex
	replies []OutMessage
	pushes  []OutMessage

	DisplayName string
	ProfileErr  error
	ReplyErr    error
	PushErr     error
	BotInfoErr  error
}

func NewFake(displayName string) *Fake {
	return &Fake{DisplayName: displayName}
}

func (f *Fake) Reply(ctx context.Context, replyToken, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReplyErr != nil {
		return f.ReplyErr
	}
	f.replies = append(f.replies, OutMessage{To: replyToken, Text: text})
	return nil
}

func (f *Fake) Push(ctx context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return f.PushErr
	}
	f.pushes = append(f.pushes, OutMessage{To: to, Text: text})
	return nil
}

func (f *Fake) Profile(ctx context.Context, userID string) (string, error) {
	if f.ProfileErr != nil {
		return "", f.ProfileErr
	}
	return f.DisplayName, nil
}

func (f *Fake) BotInfo(ctx context.Context) error {
	return f.BotInfoErr
}

// Replies returns a copy of every reply sent.
func (f *Fake) Replies() []OutMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OutMessage, len(f.replies))
	copy(out, f.replies)
	return out
}

// Pushes returns a copy of every push sent.
func (f *Fake) Pushes() []OutMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OutMessage, len(f.pushes))
	copy(out, f.pushes)
	return out
}
