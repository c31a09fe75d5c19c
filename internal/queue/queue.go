// Package queue buffers backend mutations while the backend is unreachable
// and replays them in order once connectivity returns.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/tavla/internal/notify"
)

// ErrQueued signals that an action was deferred into the offline queue; its
// eventual outcome cannot be observed by the dispatching caller.
var ErrQueued = errors.New("action queued for later sync")

// defaultMaxRetries bounds replay attempts when the caller does not choose.
const defaultMaxRetries = 3

// defaultDescription names queued actions that carry no description.
const defaultDescription = "Action"

// Action is one deferrable backend operation.
type Action func(ctx context.Context) (any, error)

// Classifier reports whether an error means the backend was unreachable.
type Classifier func(error) bool

// QueuedAction represents queued action data used by this package.
type QueuedAction struct {
	ID          string
	Description string
	EnqueuedAt  time.Time
	Retries     int
	MaxRetries  int
	run         Action
}

// Record is the persisted, executable-free view of one queued action.
type Record struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	Retries     int       `json:"retries"`
}

// Store persists queue metadata for crash-recovery visibility. Persisted
// rows are informational only; actions are not resumable across restarts.
type Store interface {
	SaveQueue(ctx context.Context, records []Record) error
	ClearQueue(ctx context.Context) error
}

// Options adjusts one Dispatch call.
type Options struct {
	Description string
	MaxRetries  int
	// Deferred skips the immediate execution path even while online.
	Deferred bool
}

// Config holds configuration for the queue.
type Config struct {
	Store             Store
	Notifier          notify.Notifier
	IsUnavailable     Classifier
	Online            bool
	DefaultMaxRetries int
	IDGen             func() string
	Clock             func() time.Time
}

// Queue represents the offline action queue.
type Queue struct {
	mu         sync.Mutex
	online     bool
	processing bool
	actions    []*QueuedAction
	lastSyncAt time.Time

	store         Store
	notifier      notify.Notifier
	isUnavailable Classifier
	maxRetries    int
	idGen         func() string
	clock         func() time.Time
}

// New constructs a new value for this package.
func New(cfg Config) *Queue {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.IsUnavailable == nil {
		cfg.IsUnavailable = func(error) bool { return false }
	}
	if cfg.DefaultMaxRetries <= 0 {
		cfg.DefaultMaxRetries = defaultMaxRetries
	}
	if cfg.IDGen == nil {
		cfg.IDGen = uuid.NewString
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Queue{
		online:        cfg.Online,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		isUnavailable: cfg.IsUnavailable,
		maxRetries:    cfg.DefaultMaxRetries,
		idGen:         cfg.IDGen,
		clock:         cfg.Clock,
	}
}

// Dispatch executes an action immediately while online, or defers it into
// the queue. A queued dispatch returns ErrQueued: the caller cannot await
// the deferred outcome. An application error from the immediate path
// propagates unchanged and is never queued; a connectivity-class failure
// falls back to queueing instead of surfacing.
func (q *Queue) Dispatch(ctx context.Context, action Action, opts Options) (any, error) {
	if action == nil {
		return nil, errors.New("action is required")
	}
	q.mu.Lock()
	online := q.online
	q.mu.Unlock()

	if online && !opts.Deferred {
		result, err := action(ctx)
		if err == nil {
			return result, nil
		}
		if !q.isUnavailable(err) {
			return nil, err
		}
		// The backend vanished mid-call; keep the mutation instead of
		// losing it.
	}

	q.enqueue(ctx, action, opts, online)
	return nil, ErrQueued
}

// enqueue appends one action and persists queue metadata.
func (q *Queue) enqueue(ctx context.Context, action Action, opts Options, wasOnline bool) {
	description := opts.Description
	if description == "" {
		description = defaultDescription
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = q.maxRetries
	}

	q.mu.Lock()
	q.actions = append(q.actions, &QueuedAction{
		ID:          q.idGen(),
		Description: description,
		EnqueuedAt:  q.clock(),
		MaxRetries:  maxRetries,
		run:         action,
	})
	records := q.recordsLocked()
	q.mu.Unlock()

	q.persist(ctx, records)
	if !wasOnline {
		q.notifier.Info(fmt.Sprintf("offline: queued %q for later sync", description))
	}
}

// Process drains the queue once, in insertion order, one action at a time.
// It is a no-op while another pass runs, while offline, or when the queue
// is empty; actions enqueued during the pass wait for the next one.
func (q *Queue) Process(ctx context.Context) {
	q.mu.Lock()
	if q.processing || !q.online || len(q.actions) == 0 {
		q.mu.Unlock()
		return
	}
	q.processing = true
	snapshot := make([]*QueuedAction, len(q.actions))
	copy(snapshot, q.actions)
	q.mu.Unlock()

	var succeeded, failed int
	for _, action := range snapshot {
		if _, err := action.run(ctx); err == nil {
			q.remove(action.ID)
			succeeded++
			continue
		}
		q.mu.Lock()
		if action.Retries < action.MaxRetries {
			// The action keeps its queue position for the next pass.
			action.Retries++
			q.mu.Unlock()
			continue
		}
		q.mu.Unlock()
		q.remove(action.ID)
		failed++
	}

	q.mu.Lock()
	q.processing = false
	q.lastSyncAt = q.clock()
	records := q.recordsLocked()
	q.mu.Unlock()

	q.persist(ctx, records)
	if succeeded > 0 {
		q.notifier.Success(fmt.Sprintf("synced %d queued action(s)", succeeded))
	}
	if failed > 0 {
		q.notifier.Error(fmt.Sprintf("%d queued action(s) failed after exhausting retries", failed))
	}
}

// SetOnline applies a connectivity transition. The offline→online edge
// emits a success notification and triggers exactly one processing pass;
// the online→offline edge emits a warning and never mutates the queue.
func (q *Queue) SetOnline(ctx context.Context, online bool) {
	q.mu.Lock()
	if q.online == online {
		q.mu.Unlock()
		return
	}
	q.online = online
	pending := len(q.actions)
	q.mu.Unlock()

	if !online {
		q.notifier.Warning("connection lost: changes will be queued")
		return
	}
	q.notifier.Success("back online")
	if pending > 0 {
		q.Process(ctx)
	}
}

// Clear empties the queue unconditionally without attempting any action.
func (q *Queue) Clear(ctx context.Context) {
	q.mu.Lock()
	dropped := len(q.actions)
	q.actions = nil
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.ClearQueue(ctx); err != nil {
			q.notifier.Error(fmt.Sprintf("clear queue metadata: %v", err))
		}
	}
	q.notifier.Info(fmt.Sprintf("cleared %d queued action(s)", dropped))
}

// Remove drops a single queued action without executing it.
func (q *Queue) Remove(ctx context.Context, actionID string) {
	q.remove(actionID)
	q.mu.Lock()
	records := q.recordsLocked()
	q.mu.Unlock()
	q.persist(ctx, records)
}

// Online reports the current connectivity state.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// Processing reports whether a drain pass is in flight.
func (q *Queue) Processing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// Len reports the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// LastSyncAt reports when the last processing pass completed.
func (q *Queue) LastSyncAt() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSyncAt
}

// Pending returns metadata for the queued actions, in queue order.
func (q *Queue) Pending() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.recordsLocked()
}

// recordsLocked snapshots queue metadata; callers hold the mutex.
func (q *Queue) recordsLocked() []Record {
	out := make([]Record, 0, len(q.actions))
	for _, action := range q.actions {
		out = append(out, Record{
			ID:          action.ID,
			Description: action.Description,
			EnqueuedAt:  action.EnqueuedAt,
			Retries:     action.Retries,
		})
	}
	return out
}

// remove removes one action by id.
func (q *Queue) remove(actionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for idx, action := range q.actions {
		if action.ID == actionID {
			q.actions = append(q.actions[:idx], q.actions[idx+1:]...)
			return
		}
	}
}

// persist writes queue metadata, surfacing failures as notifications so a
// broken local store never blocks the queue itself.
func (q *Queue) persist(ctx context.Context, records []Record) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveQueue(ctx, records); err != nil {
		q.notifier.Error(fmt.Sprintf("persist queue metadata: %v", err))
	}
}
