// Package emailtest provides an in-memory email.Sender for tests.
package emailtest

import (
	"context"
	"sync"

	"github.com/lingxijiao/backend/internal/email"
)

// Recorder captures sent messages. Set Err to make every send fail after
// the message is recorded.
type Recorder struct {
	mu       sync.Mutex
	messages []email.Message
	Err      error
}

// Send records msg
func (r *Recorder) Send(ctx context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.Err
}

// Messages returns a copy of everything sent so far
func (r *Recorder) Messages() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]email.Message, len(r.messages))
	copy(out, r.messages)
	return out
}
