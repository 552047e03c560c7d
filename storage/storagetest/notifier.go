package storagetest

import (
	"context"
	"sync"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
)

// RecordingNotifier captures every notification instead of delivering it.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []SentNotification
	Fail bool
}

type SentNotification struct {
	Kind      notification.Kind
	Recipient string
	Payload   notification.Payload
}

func (n *RecordingNotifier) Notify(_ context.Context, kind notification.Kind, recipient string, payload notification.Payload) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, SentNotification{Kind: kind, Recipient: recipient, Payload: payload})
	return !n.Fail
}

// CountByKind returns how many notifications of the given kind went out.
func (n *RecordingNotifier) CountByKind(kind notification.Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, sent := range n.Sent {
		if sent.Kind == kind {
			count++
		}
	}
	return count
}
