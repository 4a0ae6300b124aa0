package ports

import (
	"context"
	"time"

	"github.com/careguide/careguide-cli/internal/domain"
)

// UserProfile is forwarded with every streamed query so the backend can
// tailor answers to the patient.
type UserProfile struct {
	Nickname     string `json:"nickname,omitempty"`
	DiseaseStage string `json:"diseaseStage,omitempty"`
	UserRole     string `json:"userRole,omitempty"`
}

type QueryRequest struct {
	Query     string      `json:"query"`
	SessionID string      `json:"sessionId"`
	AgentType string      `json:"agentType"`
	Profile   UserProfile `json:"userProfile"`
}

// HistoryTurn is one stored request/response pair from the backend.
type HistoryTurn struct {
	Timestamp     time.Time
	UserInput     string
	AgentResponse string
}

// ChunkSink receives decoded chunks in arrival order.
type ChunkSink func(domain.StreamChunk)

// BackendAPI is the external CareGuide conversation service.
type BackendAPI interface {
	// CreateSession asks the backend for a new session id for ownerID.
	CreateSession(ctx context.Context, ownerID string) (string, error)

	// StreamQuery posts the query and feeds decoded chunks to emit until
	// the stream ends or ctx is cancelled.
	StreamQuery(ctx context.Context, req QueryRequest, emit ChunkSink) error

	// FetchHistory returns up to limit stored turns, oldest first.
	FetchHistory(ctx context.Context, ownerID, sessionID string, limit int) ([]HistoryTurn, error)
}
