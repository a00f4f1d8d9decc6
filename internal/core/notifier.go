package core

import "github.com/rs/zerolog"

// Notifier pushes events to online users, best effort. Offline targets and
// failed sends drop the event; callers performing durable mutations must
// never see a delivery failure.
type Notifier struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewNotifier builds a notifier over the given registry.
func NewNotifier(registry *Registry, logger *zerolog.Logger) *Notifier {
	return &Notifier{registry: registry, log: logger}
}

// Notify delivers the envelope to targetID's live connection, if any.
func (n *Notifier) Notify(targetID int64, env Envelope) {
	client, ok := n.registry.Lookup(targetID)
	if !ok {
		n.log.Debug().Int64("user_id", targetID).Str("event", string(env.Type)).
			Msg("notify skipped, user offline")
		return
	}
	if err := client.Deliver(env); err != nil {
		n.log.Warn().Err(err).Int64("user_id", targetID).Str("event", string(env.Type)).
			Msg("notify dropped")
	}
}
