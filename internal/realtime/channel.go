package realtime

import "sync"

// Channel is the server-side handle for one connected client. The gateway
// drains Out and writes each message to the websocket; the dispatcher pushes
// into it without ever blocking.
type Channel struct {
	ID  string
	Out chan Outbound

	mu     sync.Mutex
	closed bool
}

func NewChannel(id string, bufferSize int) *Channel {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Channel{
		ID:  id,
		Out: make(chan Outbound, bufferSize),
	}
}

// TrySend enqueues the message unless the channel is closed or its buffer is
// full. A false return means the message was dropped; slow or dead clients
// never hold up a broadcast.
func (c *Channel) TrySend(msg Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Out <- msg:
		return true
	default:
		return false
	}
}

// Close marks the channel dead and closes the outgoing queue. Safe to call
// more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Out)
}
