package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/careguide/careguide-cli/internal/ports"
)

const maxAPIResponseBytes = 1 << 20

// APIError is a non-2xx answer from the CareGuide backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, body)
}

// Client talks to the CareGuide conversation backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.BackendAPI = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type createSessionRequest struct {
	OwnerID string `json:"ownerId"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

func (c *Client) CreateSession(ctx context.Context, ownerID string) (string, error) {
	body, err := json.Marshal(createSessionRequest{OwnerID: ownerID})
	if err != nil {
		return "", fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("request session: %w", err)
	}

	var payload createSessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if payload.SessionID == "" {
		return "", fmt.Errorf("session response missing session id")
	}

	return payload.SessionID, nil
}

func (c *Client) StreamQuery(ctx context.Context, queryReq ports.QueryRequest, emit ports.ChunkSink) error {
	body, err := json.Marshal(queryReq)
	if err != nil {
		return fmt.Errorf("encode stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("request stream: %w", err)
	}

	return DecodeStream(ctx, resp.Body, emit, c.logger)
}

type historyTurnResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	UserInput     string    `json:"userInput"`
	AgentResponse string    `json:"agentResponse"`
}

func (c *Client) FetchHistory(ctx context.Context, ownerID, sessionID string, limit int) ([]ports.HistoryTurn, error) {
	query := url.Values{}
	query.Set("ownerId", ownerID)
	query.Set("sessionId", sessionID)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/history?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create history request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request history: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("request history: %w", err)
	}

	var payload []historyTurnResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}

	turns := make([]ports.HistoryTurn, 0, len(payload))
	for _, turn := range payload {
		turns = append(turns, ports.HistoryTurn{
			Timestamp:     turn.Timestamp,
			UserInput:     turn.UserInput,
			AgentResponse: turn.AgentResponse,
		})
	}
	return turns, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	return &APIError{Status: resp.StatusCode, Body: string(body)}
}
