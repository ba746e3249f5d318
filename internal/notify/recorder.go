package notify

import (
	"context"
	"sync"
)

// Recorder is a test double for Sender that captures every message.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	Reject   bool
}

func (r *Recorder) Notify(_ context.Context, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return !r.Reject
}

// Last returns the most recent message, or a zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// Verify Recorder implements Sender at compile time.
var _ Sender = (*Recorder)(nil)
