// Package common defines the service surface shared by the companion transports.
package common

import (
	"context"
	"time"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/remote"
)

// BoardService exposes board reads backed by the client service.
type BoardService interface {
	Boards(ctx context.Context) ([]remote.BoardRecord, error)
	Board(ctx context.Context, boardID string) (app.BoardView, error)
}

// CardService exposes card mutations backed by the client service.
type CardService interface {
	CreateCard(ctx context.Context, in app.CreateCardInput) (remote.CardRecord, error)
	MoveCard(ctx context.Context, cardID, listID string, position int) (remote.CardRecord, error)
	DeleteCard(ctx context.Context, cardID string) error
}

// QueueReader exposes the offline queue state.
type QueueReader interface {
	QueueState() app.QueueState
}

// Service bundles everything the companion transports need.
type Service interface {
	BoardService
	CardService
	QueueReader
}

// BoardPayload is the snapshot response shape shared by both transports.
type BoardPayload struct {
	Board     remote.BoardRecord  `json:"board"`
	Lists     []remote.ListRecord `json:"lists"`
	Cards     []remote.CardRecord `json:"cards"`
	FromCache bool                `json:"from_cache"`
	FetchedAt *time.Time          `json:"fetched_at,omitempty"`
}

// QueuePayload is the queue state response shape shared by both transports.
type QueuePayload struct {
	Online     bool          `json:"online"`
	Pending    []QueuedEntry `json:"pending"`
	LastSyncAt *time.Time    `json:"last_sync_at,omitempty"`
}

// QueuedEntry is one pending action row.
type QueuedEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	Retries     int       `json:"retries"`
}

// BoardPayloadFrom flattens one board view for transport encoding.
func BoardPayloadFrom(view app.BoardView) BoardPayload {
	payload := BoardPayload{
		Board:     view.Snapshot.Board,
		Lists:     view.Snapshot.Lists,
		Cards:     view.Snapshot.Cards,
		FromCache: view.FromCache,
	}
	if !view.FetchedAt.IsZero() {
		fetchedAt := view.FetchedAt
		payload.FetchedAt = &fetchedAt
	}
	return payload
}

// QueuePayloadFrom flattens the queue state for transport encoding.
func QueuePayloadFrom(state app.QueueState) QueuePayload {
	payload := QueuePayload{
		Online:  state.Online,
		Pending: make([]QueuedEntry, 0, len(state.Pending)),
	}
	for _, record := range state.Pending {
		payload.Pending = append(payload.Pending, QueuedEntry{
			ID:          record.ID,
			Description: record.Description,
			EnqueuedAt:  record.EnqueuedAt,
			Retries:     record.Retries,
		})
	}
	if !state.LastSyncAt.IsZero() {
		lastSync := state.LastSyncAt
		payload.LastSyncAt = &lastSync
	}
	return payload
}
