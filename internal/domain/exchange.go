package domain

import (
	"time"

	"github.com/google/uuid"
)

// SectionSeparator joins continuation chunks that belong to the same
// assistant bubble.
const SectionSeparator = "\n\n---\n\n"

type ExchangeState string

const (
	ExchangeAwaitingFirstChunk ExchangeState = "awaiting_first_chunk"
	ExchangeReceiving          ExchangeState = "receiving"
	ExchangeSettled            ExchangeState = "settled"
	ExchangeFailed             ExchangeState = "failed"
)

type FailReason string

const (
	FailReasonNone      FailReason = ""
	FailReasonCancelled FailReason = "cancelled"
	FailReasonError     FailReason = "error"
)

// Conversation holds the ordered message list of one room. Only exchanges
// created through it may mutate the list.
type Conversation struct {
	RoomID   string
	Messages []Message
}

// Snapshot returns a copy of the message list safe to hand to persistence
// or rendering while the conversation keeps changing.
func (c *Conversation) Snapshot() []Message {
	copied := make([]Message, len(c.Messages))
	copy(copied, c.Messages)
	return copied
}

// AppendTurn records a complete request/response pair in one step, for
// exchanges that arrive whole rather than streamed.
func (c *Conversation) AppendTurn(userContent, assistantContent string, now time.Time) {
	c.Messages = append(c.Messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Content: userContent, Timestamp: now},
		Message{ID: uuid.NewString(), Role: RoleAssistant, Content: assistantContent, Timestamp: now},
	)
}

// Exchange tracks one in-flight user query and the assistant message(s) it
// produces. Generation ties the exchange to the stream feeding it so late
// chunks from a superseded stream can be told apart and dropped.
type Exchange struct {
	conv       *Conversation
	Generation uint64

	state      ExchangeState
	reason     FailReason
	currentIdx int
	chunks     int
}

// BeginExchange appends the user message plus an empty assistant
// placeholder and returns the exchange that will fill it.
func (c *Conversation) BeginExchange(userContent string, generation uint64, now time.Time) *Exchange {
	c.Messages = append(c.Messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Content: userContent, Timestamp: now},
		Message{ID: uuid.NewString(), Role: RoleAssistant, Content: "", Timestamp: now},
	)

	return &Exchange{
		conv:       c,
		Generation: generation,
		state:      ExchangeAwaitingFirstChunk,
		currentIdx: len(c.Messages) - 1,
	}
}

func (e *Exchange) State() ExchangeState { return e.state }
func (e *Exchange) Reason() FailReason   { return e.reason }

// Apply folds one chunk into the conversation. The first chunk fills the
// placeholder; a new_message chunk continues the current bubble joined by
// SectionSeparator; any other status starts a fresh bubble. Chunks arriving
// after the exchange has settled or failed are ignored.
func (e *Exchange) Apply(chunk StreamChunk, now time.Time) {
	switch e.state {
	case ExchangeAwaitingFirstChunk:
		e.conv.Messages[e.currentIdx].Content = chunk.Content
		e.conv.Messages[e.currentIdx].Timestamp = now
		e.state = ExchangeReceiving
		e.chunks++
	case ExchangeReceiving:
		if chunk.Status == ChunkStatusNewMessage {
			e.conv.Messages[e.currentIdx].Content += SectionSeparator + chunk.Content
		} else {
			e.conv.Messages = append(e.conv.Messages, Message{
				ID:        uuid.NewString(),
				Role:      RoleAssistant,
				Content:   chunk.Content,
				Timestamp: now,
			})
			e.currentIdx = len(e.conv.Messages) - 1
		}
		e.chunks++
	default:
	}
}

// Finish settles the exchange at end of stream. An exchange that never
// received a chunk removes its placeholder so no empty bubble survives.
func (e *Exchange) Finish() {
	if e.state != ExchangeAwaitingFirstChunk && e.state != ExchangeReceiving {
		return
	}
	if e.chunks == 0 {
		e.removePlaceholder()
	}
	e.state = ExchangeSettled
}

// Cancel aborts the exchange. Content already shown stays as the final
// content; only a never-filled placeholder is removed.
func (e *Exchange) Cancel() {
	if e.state != ExchangeAwaitingFirstChunk && e.state != ExchangeReceiving {
		return
	}
	if e.state == ExchangeAwaitingFirstChunk {
		e.removePlaceholder()
	}
	e.state = ExchangeFailed
	e.reason = FailReasonCancelled
}

// Fail replaces the current assistant message with the fixed transport
// failure text.
func (e *Exchange) Fail() {
	if e.state != ExchangeAwaitingFirstChunk && e.state != ExchangeReceiving {
		return
	}
	e.conv.Messages[e.currentIdx].Content = TransportFailureText
	e.state = ExchangeFailed
	e.reason = FailReasonError
}

func (e *Exchange) removePlaceholder() {
	messages := e.conv.Messages
	e.conv.Messages = append(messages[:e.currentIdx], messages[e.currentIdx+1:]...)
}
