package govauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// NotificationKind names the email a Notifier is asked to send.
type NotificationKind string

const (
	NotifyVerifyEmail     NotificationKind = "verify_email"
	NotifyPasswordReset   NotificationKind = "password_reset"
	NotifyUndoEmailChange NotificationKind = "undo_email_change"
)

// Notification is emitted by the engine and delivered asynchronously.
// For undo_email_change, Email is the previous address the undo link goes to.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	UserID    int64            `json:"user_id"`
	Username  string           `json:"username,omitempty"`
	Email     string           `json:"email"`
	Token     string           `json:"token"`
	Network   string           `json:"network,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Notifier delivers notifications. Errors are logged by the engine and never
// reach the caller of the operation that produced the notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Notification) error { return nil }

// ChannelNotifier forwards notifications to a buffered channel.
type ChannelNotifier struct {
	events chan Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{events: make(chan Notification, buffer)}
}

func (s *ChannelNotifier) Notify(ctx context.Context, n Notification) error {
	select {
	case s.events <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChannelNotifier) Events() <-chan Notification {
	return s.events
}

// JSONWriterNotifier writes one JSON object per line, typically to a log or queue pipe.
type JSONWriterNotifier struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterNotifier(w io.Writer) *JSONWriterNotifier {
	return &JSONWriterNotifier{writer: w}
}

func (s *JSONWriterNotifier) Notify(_ context.Context, n Notification) error {
	if s == nil || s.writer == nil {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
