package mailer

import (
	"context"
	"sync"
)

// Message is one captured notification.
type Message struct {
	Subject string
	Body    string
}

// InMemory records notifications for tests. Err, when set, is returned from
// every Send.
type InMemory struct {
	mu   sync.Mutex
	sent []Message

	Err error
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Send(ctx context.Context, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Message{Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of every delivered message.
func (m *InMemory) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
