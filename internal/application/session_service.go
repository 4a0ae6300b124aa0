package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
)

// SessionService bridges the server-assigned session id with local state.
// It owns the TTL policy; Persistence is only its storage mirror.
type SessionService struct {
	api         ports.BackendAPI
	rooms       ports.RoomRepository
	persistence *Persistence
	clock       ports.Clock
	logger      *slog.Logger
}

func NewSessionService(api ports.BackendAPI, rooms ports.RoomRepository, persistence *Persistence, clock ports.Clock, logger *slog.Logger) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionService{
		api:         api,
		rooms:       rooms,
		persistence: persistence,
		clock:       clock,
		logger:      logger,
	}
}

// GetOrCreate returns the persisted session when it is still inside its
// idle window, refreshing its last-active time. Otherwise it asks the
// backend for a fresh session and drops history tied to the stale one.
// A backend failure propagates; no session id is ever fabricated here.
func (s *SessionService) GetOrCreate(ctx context.Context, ownerID string) (domain.Session, bool, error) {
	now := s.clock.Now()

	if session, ok := s.persistence.LoadSession(ctx); ok && session.OwnerID == ownerID && !session.Expired(now) {
		session.Touch(now)
		s.persistence.SaveSession(ctx, session)
		return session, false, nil
	}

	sessionID, err := s.api.CreateSession(ctx, ownerID)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("create backend session: %w", err)
	}

	s.clearStaleHistory(ctx)

	session := domain.Session{
		ID:           sessionID,
		OwnerID:      ownerID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.persistence.SaveSession(ctx, session)

	return session, true, nil
}

// Touch refreshes the session's last-active time, called on every
// successful user message send.
func (s *SessionService) Touch(ctx context.Context, session *domain.Session) {
	session.Touch(s.clock.Now())
	s.persistence.SaveSession(ctx, *session)
}

// Reset drops the persisted session so the next interaction starts fresh.
func (s *SessionService) Reset(ctx context.Context) {
	s.persistence.ClearSession(ctx)
}

// Current returns the persisted session without creating one.
func (s *SessionService) Current(ctx context.Context) (domain.Session, bool) {
	return s.persistence.LoadSession(ctx)
}

func (s *SessionService) clearStaleHistory(ctx context.Context) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		s.logger.Warn("list rooms while rotating session", "error", err)
		return
	}
	for _, room := range rooms {
		s.persistence.ClearMessages(ctx, room.ID)
	}
}
