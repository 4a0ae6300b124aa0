package toml

import (
	"fmt"
	"time"

	"github.com/careguide/careguide-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int          `toml:"version"`
	Rooms   []roomSchema `toml:"rooms"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported rooms schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type roomSchema struct {
	ID              string `toml:"id"`
	Title           string `toml:"title"`
	AgentType       string `toml:"agent_type"`
	MessageCount    int    `toml:"message_count"`
	LastMessage     string `toml:"last_message,omitempty"`
	LastMessageTime string `toml:"last_message_time,omitempty"`
	IsPinned        bool   `toml:"is_pinned,omitempty"`
	IsArchived      bool   `toml:"is_archived,omitempty"`
	CreatedAt       string `toml:"created_at"`
	UpdatedAt       string `toml:"updated_at"`
}

func toSchema(room domain.Room) roomSchema {
	return roomSchema{
		ID:              room.ID,
		Title:           room.Title,
		AgentType:       room.AgentType,
		MessageCount:    room.MessageCount,
		LastMessage:     room.LastMessage,
		LastMessageTime: formatTime(room.LastMessageTime),
		IsPinned:        room.IsPinned,
		IsArchived:      room.IsArchived,
		CreatedAt:       formatTime(room.CreatedAt),
		UpdatedAt:       formatTime(room.UpdatedAt),
	}
}

func fromSchema(room roomSchema) domain.Room {
	return domain.Room{
		ID:              room.ID,
		Title:           room.Title,
		AgentType:       room.AgentType,
		MessageCount:    room.MessageCount,
		LastMessage:     room.LastMessage,
		LastMessageTime: parseTime(room.LastMessageTime),
		IsPinned:        room.IsPinned,
		IsArchived:      room.IsArchived,
		CreatedAt:       parseTime(room.CreatedAt),
		UpdatedAt:       parseTime(room.UpdatedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
