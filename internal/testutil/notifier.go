package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

// RecordingNotifier records every notification and fails with Err when set.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification

	Err error
}

func (n *RecordingNotifier) Send(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *RecordingNotifier) Sent() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

func (n *RecordingNotifier) SentTo(userID uuid.UUID, kind domain.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Kind == kind {
			count++
		}
	}
	return count
}
