package domain

import "time"

type Room struct {
	ID              string
	Title           string
	AgentType       string
	MessageCount    int
	LastMessage     string
	LastMessageTime time.Time
	IsPinned        bool
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RefreshSummary recomputes the cached summary fields from the room's
// message list so they never drift from it.
func (r *Room) RefreshSummary(messages []Message, now time.Time) {
	r.MessageCount = len(messages)
	r.UpdatedAt = now

	if len(messages) == 0 {
		r.LastMessage = ""
		r.LastMessageTime = time.Time{}
		return
	}

	last := messages[len(messages)-1]
	r.LastMessage = last.Content
	r.LastMessageTime = last.Timestamp
}
