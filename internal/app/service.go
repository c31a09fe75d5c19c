// Package app orchestrates the board backend, the snapshot cache, and the
// offline queue behind one client-side service.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/queue"
	"github.com/hylla/tavla/internal/remote"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// BoardView bundles one board snapshot with its provenance.
type BoardView struct {
	Snapshot  remote.BoardSnapshot
	FromCache bool
	FetchedAt time.Time
}

// QueueState summarizes the offline queue for status surfaces.
type QueueState struct {
	Online     bool
	Pending    []queue.Record
	LastSyncAt time.Time
}

// CreateCardInput holds input values for card creation.
type CreateCardInput struct {
	BoardID     string
	ListID      string
	Position    int
	Title       string
	Description string
	Labels      []string
	DueAt       *time.Time
}

// UpdateCardInput holds input values for card updates.
type UpdateCardInput struct {
	Card        remote.CardRecord
	Title       string
	Description string
	Labels      []string
	DueAt       *time.Time
}

// Service represents service data used by this package.
type Service struct {
	backend    Backend
	cache      SnapshotCache
	dispatcher Dispatcher
	idGen      IDGenerator
	clock      Clock
}

// NewService constructs a new value for this package.
func NewService(backend Backend, cache SnapshotCache, dispatcher Dispatcher, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		backend:    backend,
		cache:      cache,
		dispatcher: dispatcher,
		idGen:      idGen,
		clock:      clock,
	}
}

// Boards lists boards from the backend.
func (s *Service) Boards(ctx context.Context) ([]remote.BoardRecord, error) {
	return s.backend.ListBoards(ctx)
}

// Board fetches one board snapshot, falling back to the local cache when the
// backend is unreachable. A fresh fetch refreshes the cache.
func (s *Service) Board(ctx context.Context, boardID string) (BoardView, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return BoardView{}, ErrNoBoard
	}

	snapshot, err := s.backend.GetBoard(ctx, boardID)
	if err == nil {
		fetchedAt := s.clock().UTC()
		if s.cache != nil {
			// A cache write failure must not hide a successful fetch.
			_ = s.cache.SaveSnapshot(ctx, snapshot, fetchedAt)
		}
		return BoardView{Snapshot: snapshot, FetchedAt: fetchedAt}, nil
	}
	if !remote.IsUnavailable(err) || s.cache == nil {
		return BoardView{}, err
	}

	cached, fetchedAt, cacheErr := s.cache.LoadSnapshot(ctx, boardID)
	if cacheErr != nil {
		return BoardView{}, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}
	return BoardView{Snapshot: cached, FromCache: true, FetchedAt: fetchedAt}, nil
}

// CreateCard validates and creates a card through the offline queue. While
// offline the card is queued and queue.ErrQueued is returned.
func (s *Service) CreateCard(ctx context.Context, in CreateCardInput) (remote.CardRecord, error) {
	card, err := domain.NewCard(domain.CardInput{
		ID:          s.idGen(),
		BoardID:     in.BoardID,
		ListID:      in.ListID,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Labels:      in.Labels,
		DueAt:       in.DueAt,
	}, s.clock())
	if err != nil {
		return remote.CardRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	record := remote.CardRecord{
		ID:          card.ID,
		BoardID:     card.BoardID,
		ListID:      card.ListID,
		Position:    card.Position,
		Title:       card.Title,
		Description: card.Description,
		Labels:      card.Labels,
		DueAt:       card.DueAt,
	}
	result, err := s.dispatcher.Dispatch(ctx, func(ctx context.Context) (any, error) {
		return s.backend.CreateCard(ctx, record)
	}, queue.Options{Description: fmt.Sprintf("Create card %q", card.Title)})
	if err != nil {
		return remote.CardRecord{}, err
	}
	return asCardRecord(result), nil
}

// UpdateCard validates and updates a card's details through the offline
// queue.
func (s *Service) UpdateCard(ctx context.Context, in UpdateCardInput) (remote.CardRecord, error) {
	card := domain.Card{
		ID:      in.Card.ID,
		BoardID: in.Card.BoardID,
		ListID:  in.Card.ListID,
	}
	if strings.TrimSpace(card.ID) == "" {
		return remote.CardRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidID)
	}
	if err := card.UpdateDetails(in.Title, in.Description, in.Labels, in.DueAt, s.clock()); err != nil {
		return remote.CardRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	record := in.Card
	record.Title = card.Title
	record.Description = card.Description
	record.Labels = card.Labels
	record.DueAt = card.DueAt
	result, err := s.dispatcher.Dispatch(ctx, func(ctx context.Context) (any, error) {
		return s.backend.UpdateCard(ctx, record)
	}, queue.Options{Description: fmt.Sprintf("Update card %q", card.Title)})
	if err != nil {
		return remote.CardRecord{}, err
	}
	return asCardRecord(result), nil
}

// MoveCard moves a card to a list position through the offline queue.
func (s *Service) MoveCard(ctx context.Context, cardID, listID string, position int) (remote.CardRecord, error) {
	card := domain.Card{ID: strings.TrimSpace(cardID)}
	if card.ID == "" {
		return remote.CardRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidID)
	}
	if err := card.Move(listID, position, s.clock()); err != nil {
		return remote.CardRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result, err := s.dispatcher.Dispatch(ctx, func(ctx context.Context) (any, error) {
		return s.backend.MoveCard(ctx, card.ID, card.ListID, card.Position)
	}, queue.Options{Description: fmt.Sprintf("Move card %s", card.ID)})
	if err != nil {
		return remote.CardRecord{}, err
	}
	return asCardRecord(result), nil
}

// DeleteCard deletes a card through the offline queue.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidID)
	}
	_, err := s.dispatcher.Dispatch(ctx, func(ctx context.Context) (any, error) {
		return nil, s.backend.DeleteCard(ctx, cardID)
	}, queue.Options{Description: fmt.Sprintf("Delete card %s", cardID)})
	return err
}

// Queued reports whether an error is the queued-for-later sentinel.
func Queued(err error) bool {
	return errors.Is(err, queue.ErrQueued)
}

// QueueState reports the offline queue for status surfaces.
func (s *Service) QueueState() QueueState {
	return QueueState{
		Online:     s.dispatcher.Online(),
		Pending:    s.dispatcher.Pending(),
		LastSyncAt: s.dispatcher.LastSyncAt(),
	}
}

// asCardRecord unwraps a dispatch result into a card record. A queued
// dispatch never reaches this point.
func asCardRecord(result any) remote.CardRecord {
	record, ok := result.(remote.CardRecord)
	if !ok {
		return remote.CardRecord{}
	}
	return record
}
