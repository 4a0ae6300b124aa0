package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
)

const DefaultAgentType = "general"

// ConversationService is the streaming chat controller. It owns every
// mutation of per-room message lists: chunks from the active stream, user
// sends, stops and resets all go through it, one room exchange at a time.
type ConversationService struct {
	api      ports.BackendAPI
	rooms    ports.RoomRepository
	sessions *SessionService
	state    *Persistence
	clock    ports.Clock
	logger   *slog.Logger

	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	generation    uint64
	active        *activeStream
}

// activeStream tracks the one stream allowed to feed a conversation.
// Its generation lets late chunks from a cancelled stream be dropped.
type activeStream struct {
	generation uint64
	roomID     string
	exchange   *domain.Exchange
	cancel     context.CancelFunc
}

func NewConversationService(api ports.BackendAPI, rooms ports.RoomRepository, sessions *SessionService, state *Persistence, clock ports.Clock, logger *slog.Logger) *ConversationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ConversationService{
		api:           api,
		rooms:         rooms,
		sessions:      sessions,
		state:         state,
		clock:         clock,
		logger:        logger,
		conversations: map[string]*domain.Conversation{},
	}
}

// SubmitOptions carries the per-query knobs forwarded to the backend.
type SubmitOptions struct {
	AgentType string
	Profile   ports.UserProfile
}

// Submit sends one user query and streams the assistant's answer into the
// room until the stream ends. A stream already in flight is cancelled
// first, so the room never has two writers. onChunk, when set, observes
// each applied chunk in arrival order.
//
// Cancellation (Stop, a superseding Submit, ctx teardown) is not an error:
// Submit returns nil and leaves whatever content was already shown.
// Transport failures are also settled in-room, as a fixed failure bubble.
// Only session establishment failures propagate to the caller.
func (s *ConversationService) Submit(ctx context.Context, ownerID, roomID, query string, opts SubmitOptions, onChunk ports.ChunkSink) error {
	if opts.AgentType == "" {
		opts.AgentType = DefaultAgentType
	}

	session, _, err := s.sessions.GetOrCreate(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	s.mu.Lock()
	s.cancelActiveLocked(ctx)

	conv, err := s.conversationLocked(ctx, roomID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.generation++
	generation := s.generation

	exchange := conv.BeginExchange(query, generation, s.clock.Now())
	streamCtx, cancel := context.WithCancel(ctx)
	s.active = &activeStream{
		generation: generation,
		roomID:     roomID,
		exchange:   exchange,
		cancel:     cancel,
	}
	s.state.SaveMessages(ctx, roomID, conv.Snapshot())
	s.mu.Unlock()

	defer cancel()
	s.sessions.Touch(ctx, &session)

	streamErr := s.api.StreamQuery(streamCtx, ports.QueryRequest{
		Query:     query,
		SessionID: session.ID,
		AgentType: opts.AgentType,
		Profile:   opts.Profile,
	}, func(chunk domain.StreamChunk) {
		s.applyChunk(ctx, generation, chunk, onChunk)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop, a superseding Submit, or a room mutation already settled this
	// exchange under the lock; nothing is left to do.
	if s.active == nil || s.active.generation != generation {
		return nil
	}
	s.active = nil

	switch {
	case streamErr == nil:
		exchange.Finish()
	case errors.Is(streamErr, context.Canceled):
		exchange.Cancel()
	default:
		s.logger.Warn("chat stream failed", "room", roomID, "error", streamErr)
		exchange.Fail()
	}

	s.state.SaveMessages(ctx, roomID, conv.Snapshot())
	s.refreshRoomLocked(ctx, roomID, conv)
	return nil
}

// Stop cancels the in-flight stream, if any. Not an error condition.
// The exchange is settled here, not when the stream goroutine notices
// the cancellation, so a chunk already racing in gets dropped by the
// generation check instead of landing after the user stopped.
func (s *ConversationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelActiveLocked(context.Background())
}

// Close tears the controller down, cancelling any in-flight work.
func (s *ConversationService) Close() {
	s.Stop()
}

// applyChunk folds one decoded chunk into the active exchange. Chunks
// whose generation no longer matches raced a cancellation and are dropped.
func (s *ConversationService) applyChunk(ctx context.Context, generation uint64, chunk domain.StreamChunk, onChunk ports.ChunkSink) {
	s.mu.Lock()
	if s.active == nil || s.active.generation != generation {
		s.mu.Unlock()
		return
	}

	s.active.exchange.Apply(chunk, s.clock.Now())
	if conv, ok := s.conversations[s.active.roomID]; ok {
		s.state.SaveMessages(ctx, s.active.roomID, conv.Snapshot())
	}
	s.mu.Unlock()

	if onChunk != nil {
		onChunk(chunk)
	}
}

// RecordDirectExchange appends a complete request/response pair, for
// collaborator calls that return whole answers instead of streams.
func (s *ConversationService) RecordDirectExchange(ctx context.Context, roomID, query, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.conversationLocked(ctx, roomID)
	if err != nil {
		return err
	}

	conv.AppendTurn(query, response, s.clock.Now())
	s.state.SaveMessages(ctx, roomID, conv.Snapshot())
	s.refreshRoomLocked(ctx, roomID, conv)
	return nil
}

// Messages returns a snapshot of the room's message list.
func (s *ConversationService) Messages(ctx context.Context, roomID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.conversationLocked(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return conv.Snapshot(), nil
}

// RestoreHistory replaces the room's local history with the backend's
// stored turns, each expanded into one user and one assistant message.
func (s *ConversationService) RestoreHistory(ctx context.Context, ownerID, roomID string, limit int) (int, error) {
	session, ok := s.sessions.Current(ctx)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}

	turns, err := s.api.FetchHistory(ctx, ownerID, session.ID, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// An exchange still streaming into this room would keep indexing the
	// old message slice; settle it before the history replaces them.
	if s.active != nil && s.active.roomID == roomID {
		s.cancelActiveLocked(ctx)
	}

	conv, err := s.conversationLocked(ctx, roomID)
	if err != nil {
		return 0, err
	}

	conv.Messages = conv.Messages[:0]
	for _, turn := range turns {
		conv.AppendTurn(turn.UserInput, turn.AgentResponse, turn.Timestamp)
	}

	s.state.SaveMessages(ctx, roomID, conv.Snapshot())
	s.refreshRoomLocked(ctx, roomID, conv)
	return len(turns), nil
}

// CreateRoom registers a new conversation thread.
func (s *ConversationService) CreateRoom(ctx context.Context, title, agentType string) (domain.Room, error) {
	if agentType == "" {
		agentType = DefaultAgentType
	}
	now := s.clock.Now()

	room := domain.Room{
		ID:        uuid.NewString(),
		Title:     title,
		AgentType: agentType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("save room: %w", err)
	}
	return room, nil
}

// EnsureRoom returns the room, creating it implicitly when absent.
func (s *ConversationService) EnsureRoom(ctx context.Context, roomID, title string) (domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}

	now := s.clock.Now()
	room = domain.Room{
		ID:        roomID,
		Title:     title,
		AgentType: DefaultAgentType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("save room: %w", err)
	}
	return room, nil
}

func (s *ConversationService) Rooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *ConversationService) SetRoomPinned(ctx context.Context, roomID string, pinned bool) error {
	return s.updateRoom(ctx, roomID, func(room *domain.Room) { room.IsPinned = pinned })
}

func (s *ConversationService) SetRoomArchived(ctx context.Context, roomID string, archived bool) error {
	return s.updateRoom(ctx, roomID, func(room *domain.Room) { room.IsArchived = archived })
}

// DeleteRoom removes the room's metadata and its message history together.
func (s *ConversationService) DeleteRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.roomID == roomID {
		s.cancelActiveLocked(ctx)
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	s.state.ClearMessages(ctx, roomID)
	delete(s.conversations, roomID)
	return nil
}

func (s *ConversationService) updateRoom(ctx context.Context, roomID string, apply func(*domain.Room)) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}

	apply(&room)
	room.UpdatedAt = s.clock.Now()

	if err := s.rooms.Save(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

// cancelActiveLocked finishes off the previous exchange before a new one
// may start. Placeholder removal has to happen before the next exchange
// appends its own messages.
func (s *ConversationService) cancelActiveLocked(ctx context.Context) {
	if s.active == nil {
		return
	}

	s.active.cancel()
	s.active.exchange.Cancel()
	if conv, ok := s.conversations[s.active.roomID]; ok {
		s.state.SaveMessages(ctx, s.active.roomID, conv.Snapshot())
	}
	s.active = nil
}

func (s *ConversationService) conversationLocked(ctx context.Context, roomID string) (*domain.Conversation, error) {
	if conv, ok := s.conversations[roomID]; ok {
		return conv, nil
	}

	conv := &domain.Conversation{
		RoomID:   roomID,
		Messages: s.state.LoadMessages(ctx, roomID),
	}
	s.conversations[roomID] = conv
	return conv, nil
}

func (s *ConversationService) refreshRoomLocked(ctx context.Context, roomID string, conv *domain.Conversation) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			s.logger.Warn("load room for summary refresh", "room", roomID, "error", err)
		}
		return
	}

	room.RefreshSummary(conv.Messages, s.clock.Now())
	if err := s.rooms.Save(ctx, room); err != nil {
		s.logger.Warn("save room summary", "room", roomID, "error", err)
	}
}
