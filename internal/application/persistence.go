package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/careguide/careguide-cli/internal/ports"
)

const (
	sessionKey       = "careguide/session"
	historyKeyPrefix = "careguide/history/"
)

func historyKey(roomID string) string {
	return historyKeyPrefix + roomID
}

// Persistence mirrors conversation state into the local store. It is a dumb
// key-value mirror: expiry decisions belong to SessionService, and storage
// failures never interrupt the in-memory conversation.
type Persistence struct {
	store  ports.LocalStore
	logger *slog.Logger
}

func NewPersistence(store ports.LocalStore, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persistence{store: store, logger: logger}
}

type messageRecord struct {
	ID          string   `json:"id"`
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	TimestampMS int64    `json:"timestampMs"`
	Intents     []string `json:"intents,omitempty"`
	Agents      []string `json:"agents,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	IsEmergency bool     `json:"isEmergency,omitempty"`
}

type sessionRecord struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	CreatedAtMS    int64  `json:"createdAtMs"`
	LastActiveAtMS int64  `json:"lastActiveAtMs"`
}

// SaveMessages writes the room's message snapshot. Best effort: failures
// are logged and swallowed so a full disk never breaks the chat.
func (p *Persistence) SaveMessages(ctx context.Context, roomID string, messages []domain.Message) {
	records := make([]messageRecord, 0, len(messages))
	for _, m := range messages {
		records = append(records, messageRecord{
			ID:          m.ID,
			Role:        string(m.Role),
			Content:     m.Content,
			TimestampMS: m.Timestamp.UnixMilli(),
			Intents:     m.Intents,
			Agents:      m.Agents,
			Confidence:  m.Confidence,
			IsEmergency: m.IsEmergency,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		p.logger.Warn("encode message history", "room", roomID, "error", err)
		return
	}

	if err := p.store.Set(ctx, historyKey(roomID), string(data)); err != nil {
		p.logger.Warn("persist message history", "room", roomID, "error", err)
	}
}

// LoadMessages restores a room's history. Absent or malformed entries load
// as nil rather than erroring.
func (p *Persistence) LoadMessages(ctx context.Context, roomID string) []domain.Message {
	raw, err := p.store.Get(ctx, historyKey(roomID))
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			p.logger.Warn("read message history", "room", roomID, "error", err)
		}
		return nil
	}

	var records []messageRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		p.logger.Warn("decode message history", "room", roomID, "error", err)
		return nil
	}

	messages := make([]domain.Message, 0, len(records))
	for _, r := range records {
		messages = append(messages, domain.Message{
			ID:          r.ID,
			Role:        domain.Role(r.Role),
			Content:     r.Content,
			Timestamp:   time.UnixMilli(r.TimestampMS).UTC(),
			Intents:     r.Intents,
			Agents:      r.Agents,
			Confidence:  r.Confidence,
			IsEmergency: r.IsEmergency,
		})
	}
	return messages
}

func (p *Persistence) ClearMessages(ctx context.Context, roomID string) {
	if err := p.store.Remove(ctx, historyKey(roomID)); err != nil {
		p.logger.Warn("clear message history", "room", roomID, "error", err)
	}
}

func (p *Persistence) SaveSession(ctx context.Context, session domain.Session) {
	data, err := json.Marshal(sessionRecord{
		ID:             session.ID,
		OwnerID:        session.OwnerID,
		CreatedAtMS:    session.CreatedAt.UnixMilli(),
		LastActiveAtMS: session.LastActiveAt.UnixMilli(),
	})
	if err != nil {
		p.logger.Warn("encode session", "error", err)
		return
	}

	if err := p.store.Set(ctx, sessionKey, string(data)); err != nil {
		p.logger.Warn("persist session", "error", err)
	}
}

func (p *Persistence) LoadSession(ctx context.Context) (domain.Session, bool) {
	raw, err := p.store.Get(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			p.logger.Warn("read session", "error", err)
		}
		return domain.Session{}, false
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		p.logger.Warn("decode session", "error", err)
		return domain.Session{}, false
	}

	return domain.Session{
		ID:           record.ID,
		OwnerID:      record.OwnerID,
		CreatedAt:    time.UnixMilli(record.CreatedAtMS).UTC(),
		LastActiveAt: time.UnixMilli(record.LastActiveAtMS).UTC(),
	}, true
}

func (p *Persistence) ClearSession(ctx context.Context) {
	if err := p.store.Remove(ctx, sessionKey); err != nil {
		p.logger.Warn("clear session", "error", err)
	}
}
