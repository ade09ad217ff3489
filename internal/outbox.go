package internal

import (
	"context"
	"sync"
)

// outbox is an unbounded FIFO between the input reader and the outbound
// pump. Push never blocks, so a stalled transport grows the queue instead of
// stalling the operator's input.
type outbox struct {
	mu     sync.Mutex
	items  []Message
	closed bool
	err    error
	ready  chan struct{} // holds one token while items is non-empty or closed
}

func newOutbox() *outbox {
	return &outbox{ready: make(chan struct{}, 1)}
}

// Push appends msg. It reports false once the outbox is closed.
func (o *outbox) Push(msg Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	o.items = append(o.items, msg)
	o.signal()
	return true
}

// Close stops further pushes. Messages already queued are still delivered;
// after them Pop returns err.
func (o *outbox) Close(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.err = err
	o.signal()
}

// Pop blocks until a message is available. ok is false once the outbox is
// closed and empty; err is then the error it was closed with.
func (o *outbox) Pop(ctx context.Context) (msg Message, ok bool, err error) {
	for {
		o.mu.Lock()
		if len(o.items) > 0 {
			msg = o.items[0]
			o.items[0] = Message{}
			o.items = o.items[1:]
			if len(o.items) > 0 || o.closed {
				o.signal()
			}
			o.mu.Unlock()
			return msg, true, nil
		}
		if o.closed {
			o.signal()
			err = o.err
			o.mu.Unlock()
			return Message{}, false, err
		}
		o.mu.Unlock()

		select {
		case <-o.ready:
		case <-ctx.Done():
			return Message{}, false, ctx.Err()
		}
	}
}

// Len reports the number of queued messages.
func (o *outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
