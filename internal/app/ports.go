package app

import (
	"context"
	"time"

	"github.com/hylla/tavla/internal/queue"
	"github.com/hylla/tavla/internal/remote"
)

// Backend represents the board-backend contract used by this package.
type Backend interface {
	Health(context.Context) error
	ListBoards(context.Context) ([]remote.BoardRecord, error)
	GetBoard(context.Context, string) (remote.BoardSnapshot, error)
	CreateCard(context.Context, remote.CardRecord) (remote.CardRecord, error)
	UpdateCard(context.Context, remote.CardRecord) (remote.CardRecord, error)
	MoveCard(context.Context, string, string, int) (remote.CardRecord, error)
	DeleteCard(context.Context, string) error
}

// SnapshotCache represents the local board-snapshot contract.
type SnapshotCache interface {
	SaveSnapshot(context.Context, remote.BoardSnapshot, time.Time) error
	LoadSnapshot(context.Context, string) (remote.BoardSnapshot, time.Time, error)
}

// Dispatcher represents the offline-queue contract used by mutations.
type Dispatcher interface {
	Dispatch(context.Context, queue.Action, queue.Options) (any, error)
	Pending() []queue.Record
	Online() bool
	Len() int
	LastSyncAt() time.Time
}
