package core

import (
	"errors"
	"sync"
)

// ErrClientClosed is returned by Deliver after the client has been closed.
var ErrClientClosed = errors.New("client closed")

// ErrDeliveryBackpressure is returned by Deliver when the client's event
// buffer is full. The event is dropped, not queued.
var ErrDeliveryBackpressure = errors.New("client event buffer full")

// Client is the connection handle stored in the registry. The transport
// layer drains Events and writes them to the underlying socket.
type Client struct {
	ID string

	mu     sync.Mutex
	events chan Envelope
	closed bool
}

// NewClient constructs a client handle with a buffered event channel.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		events: make(chan Envelope, 16),
	}
}

// Events exposes the outbound envelope stream for the write loop.
func (c *Client) Events() <-chan Envelope {
	return c.events
}

// Deliver enqueues an envelope for transmission. It never blocks: a closed
// client or a full buffer counts as a failed delivery.
func (c *Client) Deliver(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.events <- env:
		return nil
	default:
		return ErrDeliveryBackpressure
	}
}

// Close shuts the event stream down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
