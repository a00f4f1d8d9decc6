package core

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func newTestNotifier(reg *Registry) *Notifier {
	logger := zerolog.New(io.Discard)
	return NewNotifier(reg, &logger)
}

func TestNotifyOnlineUser(t *testing.T) {
	reg := NewRegistry()
	n := newTestNotifier(reg)

	c := NewClient("c1")
	reg.Register(42, c)

	n.Notify(42, Envelope{Type: EnvelopeMessage, Message: &MessagePayload{ID: 1, SenderID: 7, RecipientID: 42, Content: "hi"}})

	select {
	case env := <-c.Events():
		if env.Type != EnvelopeMessage || env.Message == nil || env.Message.Content != "hi" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	default:
		t.Fatalf("expected envelope delivered to online user")
	}
}

func TestNotifyOfflineUserIsNoop(t *testing.T) {
	reg := NewRegistry()
	n := newTestNotifier(reg)

	// Must not panic, error, or mutate the registry however often it runs.
	for i := 0; i < 10; i++ {
		n.Notify(99, ErrorEnvelope("ignored"))
	}
	if len(reg.OnlineUsers()) != 0 {
		t.Fatalf("notify must not mutate registry state")
	}
}

func TestNotifyFailedDeliveryIsSwallowed(t *testing.T) {
	reg := NewRegistry()
	n := newTestNotifier(reg)

	c := NewClient("c1")
	reg.Register(42, c)
	c.Close()

	// Handle is registered but dead; Notify must return normally.
	n.Notify(42, AuthenticatedEnvelope())
}

func TestNotifyBackpressureDropsEvent(t *testing.T) {
	reg := NewRegistry()
	n := newTestNotifier(reg)

	c := NewClient("c1")
	reg.Register(42, c)

	// Fill the buffer past capacity; overflow is dropped, never blocks.
	for i := 0; i < 64; i++ {
		n.Notify(42, AuthenticatedEnvelope())
	}
}
