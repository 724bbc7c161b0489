// Package api provides the HTTP transport to the review sync server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/service/syncqueue"
	"github.com/phrazzld/scry-client/internal/store"
)

// Client is an HTTP implementation of the syncqueue.ServerClient interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements syncqueue.ServerClient interface
var _ syncqueue.ServerClient = (*Client)(nil)

// NewClient creates an API client against baseURL. Timeout bounds each
// request end to end. If logger is nil, a default logger will be used.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "api_client")),
	}
}

// batchRequest is the wire form of one review batch submission.
type batchRequest struct {
	BatchID uuid.UUID       `json:"batch_id"`
	Reviews []reviewPayload `json:"reviews"`
}

// reviewPayload is the wire form of one review event.
type reviewPayload struct {
	ID             uuid.UUID     `json:"id"`
	CardID         uuid.UUID     `json:"card_id"`
	DeckID         uuid.UUID     `json:"deck_id"`
	DeviceID       uuid.UUID     `json:"device_id"`
	Rating         domain.Rating `json:"rating"`
	ReviewedAt     time.Time     `json:"reviewed_at"`
	SessionID      uuid.UUID     `json:"session_id"`
	Sequence       int64         `json:"sequence"`
	PayloadVersion int           `json:"payload_version"`
}

// SubmitReviewBatch implements syncqueue.ServerClient.SubmitReviewBatch
func (c *Client) SubmitReviewBatch(
	ctx context.Context,
	batchID uuid.UUID,
	entries []*domain.ReviewQueueEntry,
) (*syncqueue.BatchResult, error) {
	payload := batchRequest{
		BatchID: batchID,
		Reviews: make([]reviewPayload, len(entries)),
	}
	for i, e := range entries {
		payload.Reviews[i] = reviewPayload{
			ID:             e.ID,
			CardID:         e.CardID,
			DeckID:         e.DeckID,
			DeviceID:       e.DeviceID,
			Rating:         e.Rating,
			ReviewedAt:     e.ReviewedAt,
			SessionID:      e.SessionID,
			Sequence:       e.Sequence,
			PayloadVersion: e.PayloadVersion,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode review batch %s: %w", batchID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/reviews/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", batchID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit review batch %s: %w", batchID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, "submit review batch")
	}

	var result syncqueue.BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode batch result %s: %w", batchID, err)
	}

	return &result, nil
}

// FetchAuthoritativeCard implements syncqueue.ServerClient.FetchAuthoritativeCard
func (c *Client) FetchAuthoritativeCard(ctx context.Context, cardID uuid.UUID) (*domain.CardRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/cards/"+cardID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card %s: %w", cardID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: card %s", store.ErrCardNotFound, cardID)
	default:
		return nil, c.statusError(resp, "fetch card")
	}

	var rec domain.CardRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode card record %s: %w", cardID, err)
	}

	return &rec, nil
}

// statusError renders a non-success response as an error, keeping a short
// body excerpt for diagnosis.
func (c *Client) statusError(resp *http.Response, op string) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Warn("server returned an error",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.String("body", string(excerpt)))
	return fmt.Errorf("%s: server returned %d", op, resp.StatusCode)
}
