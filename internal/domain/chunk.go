package domain

const (
	ChunkStatusStreaming  = "streaming"
	ChunkStatusNewMessage = "new_message"
	ChunkStatusComplete   = "complete"
)

// StreamChunk is one decoded unit of streamed assistant output. It lives
// only between the decoder and the reducer and is never persisted.
type StreamChunk struct {
	Content string
	Status  string
}

// contentFields lists the payload keys that may carry the answer text,
// in priority order. Backends have shipped all three names; new ones get
// added here instead of growing branch logic in the decoder.
var contentFields = []string{"content", "answer", "response"}

// ChunkFromPayload extracts a chunk from a decoded JSON object. The first
// non-empty content field wins. Payloads with no usable content report
// ok=false and are dropped by the caller.
func ChunkFromPayload(payload map[string]any) (StreamChunk, bool) {
	chunk := StreamChunk{}

	for _, field := range contentFields {
		value, present := payload[field]
		if !present {
			continue
		}
		text, isString := value.(string)
		if !isString || text == "" {
			continue
		}
		chunk.Content = text
		break
	}

	if status, isString := payload["status"].(string); isString {
		chunk.Status = status
	}

	if chunk.Content == "" {
		return StreamChunk{}, false
	}
	return chunk, true
}
