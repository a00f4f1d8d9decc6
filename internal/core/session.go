package core

import "github.com/rs/zerolog"

// SessionState tracks where a connection is in its lifecycle.
type SessionState int

const (
	// StateUnauthenticated is the state of a freshly accepted connection.
	StateUnauthenticated SessionState = iota
	// StateAuthenticated means the connection is registered for a user.
	StateAuthenticated
	// StateClosed is terminal; no further frames are processed.
	StateClosed
)

// TokenVerifier validates a bearer credential and yields the user it
// belongs to. REST middleware and socket sessions share one implementation.
type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

// Session is the per-connection state machine. It owns at most one registry
// entry and is driven by the transport's read loop, one frame at a time.
type Session struct {
	registry *Registry
	verifier TokenVerifier
	client   *Client
	log      *zerolog.Logger

	state  SessionState
	userID int64
}

// NewSession creates a session in the unauthenticated state.
func NewSession(registry *Registry, verifier TokenVerifier, client *Client, logger *zerolog.Logger) *Session {
	return &Session{
		registry: registry,
		verifier: verifier,
		client:   client,
		log:      logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// UserID returns the authenticated user, valid only in StateAuthenticated.
func (s *Session) UserID() int64 {
	return s.userID
}

// Client returns the connection handle owned by this session.
func (s *Session) Client() *Client {
	return s.client
}

// HandleAuthenticate processes an authenticate frame. A bad token emits an
// error envelope and leaves the connection open for retry. Authentication is
// one-shot: repeated frames on an authenticated session are ignored.
func (s *Session) HandleAuthenticate(token string) {
	switch s.state {
	case StateClosed:
		return
	case StateAuthenticated:
		s.log.Debug().Str("client_id", s.client.ID).Int64("user_id", s.userID).
			Msg("duplicate authenticate frame ignored")
		return
	}

	userID, err := s.verifier.VerifyToken(token)
	if err != nil {
		s.log.Debug().Err(err).Str("client_id", s.client.ID).Msg("socket authentication failed")
		if derr := s.client.Deliver(ErrorEnvelope("authentication failed")); derr != nil {
			s.log.Warn().Err(derr).Str("client_id", s.client.ID).Msg("deliver auth error envelope")
		}
		return
	}

	s.state = StateAuthenticated
	s.userID = userID

	if displaced := s.registry.Register(userID, s.client); displaced != nil {
		// Last connection wins; shut the superseded handle down so it can
		// never receive fan-out alongside this one.
		displaced.Close()
		s.log.Info().Int64("user_id", userID).Str("client_id", displaced.ID).
			Msg("superseded older connection")
	}

	if err := s.client.Deliver(AuthenticatedEnvelope()); err != nil {
		s.log.Warn().Err(err).Str("client_id", s.client.ID).Msg("deliver authenticated envelope")
	}
	s.log.Info().Int64("user_id", userID).Str("client_id", s.client.ID).Msg("socket authenticated")
}

// HandleUnknown logs an unrecognized frame type. Protocol violations are
// non-fatal.
func (s *Session) HandleUnknown(frameType string) {
	if s.state == StateClosed {
		return
	}
	s.log.Debug().Str("client_id", s.client.ID).Str("frame_type", frameType).
		Msg("ignoring unrecognized frame")
}

// Close moves the session to its terminal state, evicting the registry entry
// if this session still owns it. Idempotent.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	if s.state == StateAuthenticated {
		if s.registry.Unregister(s.userID, s.client) {
			s.log.Info().Int64("user_id", s.userID).Str("client_id", s.client.ID).Msg("socket unregistered")
		}
	}
	s.state = StateClosed
	s.client.Close()
}
