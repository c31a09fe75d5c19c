package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures notifications per severity for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	success []string
	warning []string
	info    []string
	errs    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, msg)
}

func (n *recordingNotifier) Warning(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warning = append(n.warning, msg)
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.info = append(n.info, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, msg)
}

// memStore keeps persisted queue metadata in memory.
type memStore struct {
	mu      sync.Mutex
	records []Record
	saves   int
	cleared int
}

func (s *memStore) SaveQueue(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]Record(nil), records...)
	s.saves++
	return nil
}

func (s *memStore) ClearQueue(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.cleared++
	return nil
}

// errTransport marks scripted connectivity failures in these tests.
var errTransport = errors.New("backend unreachable")

func newTestQueue(online bool) (*Queue, *recordingNotifier, *memStore) {
	notifier := &recordingNotifier{}
	store := &memStore{}
	seq := 0
	q := New(Config{
		Store:         store,
		Notifier:      notifier,
		IsUnavailable: func(err error) bool { return errors.Is(err, errTransport) },
		Online:        online,
		IDGen: func() string {
			seq++
			return fmt.Sprintf("a%d", seq)
		},
		Clock: func() time.Time { return time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC) },
	})
	return q, notifier, store
}

func TestDispatchImmediatePassThrough(t *testing.T) {
	q, _, store := newTestQueue(true)
	result, err := q.Dispatch(context.Background(), func(context.Context) (any, error) {
		return 42, nil
	}, Options{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result != 42 {
		t.Fatalf("expected pass-through result 42, got %v", result)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
	if store.saves != 0 {
		t.Fatalf("expected no persistence on immediate success, got %d saves", store.saves)
	}
}

func TestDispatchApplicationErrorPropagates(t *testing.T) {
	q, _, _ := newTestQueue(true)
	appErr := errors.New("validation failed")
	_, err := q.Dispatch(context.Background(), func(context.Context) (any, error) {
		return nil, appErr
	}, Options{})
	if !errors.Is(err, appErr) {
		t.Fatalf("expected application error, got %v", err)
	}
	if q.Len() != 0 {
		t.Fatal("application errors must not be queued")
	}
}

func TestDispatchTransportFailureFallsBackToQueue(t *testing.T) {
	q, notifier, store := newTestQueue(true)
	_, err := q.Dispatch(context.Background(), func(context.Context) (any, error) {
		return nil, fmt.Errorf("create card: %w", errTransport)
	}, Options{Description: "Create card X"})
	if !errors.Is(err, ErrQueued) {
		t.Fatalf("expected ErrQueued, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued action, got %d", q.Len())
	}
	if len(store.records) != 1 || store.records[0].Description != "Create card X" {
		t.Fatalf("unexpected persisted records %#v", store.records)
	}
	// The state was nominally online, so no offline toast fires.
	if len(notifier.info) != 0 {
		t.Fatalf("unexpected info notifications %#v", notifier.info)
	}
}

func TestOfflineDispatchQueuesAndNotifies(t *testing.T) {
	q, notifier, _ := newTestQueue(false)
	for i := 0; i < 3; i++ {
		_, err := q.Dispatch(context.Background(), func(context.Context) (any, error) {
			return nil, nil
		}, Options{Description: fmt.Sprintf("Create card %d", i)})
		if !errors.Is(err, ErrQueued) {
			t.Fatalf("expected ErrQueued, got %v", err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 queued actions, got %d", q.Len())
	}
	if len(notifier.info) != 3 {
		t.Fatalf("expected 3 offline toasts, got %#v", notifier.info)
	}
}

func TestProcessDrainsInFIFOOrder(t *testing.T) {
	q, notifier, _ := newTestQueue(false)
	var order []string
	enqueue := func(name string) {
		_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
			order = append(order, name)
			return nil, nil
		}, Options{Description: name})
	}
	enqueue("A")
	enqueue("B")
	enqueue("C")

	q.SetOnline(context.Background(), true)

	if len(order) != 3 || order[0] != "A" || order[1] != "B" || order[2] != "C" {
		t.Fatalf("unexpected execution order %#v", order)
	}
	if q.Len() != 0 {
		t.Fatalf("expected drained queue, got %d", q.Len())
	}
	if len(notifier.success) != 2 { // "back online" + aggregate sync toast
		t.Fatalf("unexpected success notifications %#v", notifier.success)
	}
	if notifier.success[1] != "synced 3 queued action(s)" {
		t.Fatalf("unexpected aggregate toast %q", notifier.success[1])
	}
}

func TestRetryBudget(t *testing.T) {
	q, notifier, _ := newTestQueue(false)
	attempts := 0
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
		attempts++
		return nil, errors.New("still failing")
	}, Options{Description: "doomed", MaxRetries: 2})

	q.SetOnline(context.Background(), true)
	for i := 0; i < 5; i++ {
		q.Process(context.Background())
	}
	if attempts != 3 {
		t.Fatalf("maxRetries=2 allows 3 total attempts, got %d", attempts)
	}
	if q.Len() != 0 {
		t.Fatal("exhausted action must be removed")
	}
	if len(notifier.errs) != 1 {
		t.Fatalf("expected one aggregate failure toast, got %#v", notifier.errs)
	}
}

func TestRetryKeepsQueuePositionAcrossPasses(t *testing.T) {
	q, _, _ := newTestQueue(false)
	var order []string
	failOnce := true
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
		order = append(order, "first")
		if failOnce {
			failOnce = false
			return nil, errors.New("flaky")
		}
		return nil, nil
	}, Options{Description: "first", MaxRetries: 3})
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
		order = append(order, "second")
		return nil, nil
	}, Options{Description: "second"})

	q.SetOnline(context.Background(), true)
	// First pass: first fails (retry budget left), second succeeds.
	if q.Len() != 1 {
		t.Fatalf("expected 1 remaining action, got %d", q.Len())
	}
	records := q.Pending()
	if records[0].Description != "first" || records[0].Retries != 1 {
		t.Fatalf("unexpected pending record %#v", records[0])
	}

	q.Process(context.Background())
	if q.Len() != 0 {
		t.Fatal("expected retried action to drain on second pass")
	}
	want := []string{"first", "second", "first"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected attempt order %#v", order)
		}
	}
}

func TestScenarioDMaxRetriesOne(t *testing.T) {
	q, notifier, _ := newTestQueue(false)
	attempts := 0
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
		attempts++
		return nil, errors.New("always rejects")
	}, Options{Description: "doomed", MaxRetries: 1})
	q.SetOnline(context.Background(), true)

	// First pass already ran via SetOnline: retries=1, still queued.
	if q.Len() != 1 || q.Pending()[0].Retries != 1 {
		t.Fatalf("unexpected state after first pass: len=%d pending=%#v", q.Len(), q.Pending())
	}
	q.Process(context.Background())
	if q.Len() != 0 {
		t.Fatal("expected action removed after second pass")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if len(notifier.errs) != 1 {
		t.Fatalf("expected aggregate failure toast, got %#v", notifier.errs)
	}
}

func TestProcessSingleFlight(t *testing.T) {
	q, _, _ := newTestQueue(false)
	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) {
		runs++
		close(started)
		<-release
		return nil, nil
	}, Options{Description: "slow"})

	q.mu.Lock()
	q.online = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.Process(context.Background())
		close(done)
	}()
	<-started
	// A second call while the first pass is awaiting must be a no-op.
	q.Process(context.Background())
	if !q.Processing() {
		t.Fatal("expected first pass still in flight")
	}
	close(release)
	<-done
	if runs != 1 {
		t.Fatalf("expected exactly one execution, got %d", runs)
	}
}

func TestActionsEnqueuedDuringPassWaitForNextPass(t *testing.T) {
	q, _, _ := newTestQueue(false)
	var secondRan bool
	_, _ = q.Dispatch(context.Background(), func(ctx context.Context) (any, error) {
		// Enqueue a follow-up mid-pass; it must not run in this pass.
		_, _ = q.Dispatch(ctx, func(context.Context) (any, error) {
			secondRan = true
			return nil, nil
		}, Options{Description: "late", Deferred: true})
		return nil, nil
	}, Options{Description: "early"})

	q.SetOnline(context.Background(), true)
	if secondRan {
		t.Fatal("late action must wait for the next pass")
	}
	if q.Len() != 1 {
		t.Fatalf("expected late action queued, got %d", q.Len())
	}
	q.Process(context.Background())
	if !secondRan || q.Len() != 0 {
		t.Fatalf("expected late action drained on next pass (ran=%t len=%d)", secondRan, q.Len())
	}
}

func TestConnectivityTransitions(t *testing.T) {
	q, notifier, _ := newTestQueue(true)
	q.SetOnline(context.Background(), false)
	if q.Online() {
		t.Fatal("expected offline state")
	}
	if len(notifier.warning) != 1 {
		t.Fatalf("expected offline warning, got %#v", notifier.warning)
	}
	// Repeating the same state is not an edge.
	q.SetOnline(context.Background(), false)
	if len(notifier.warning) != 1 {
		t.Fatalf("expected no duplicate warning, got %#v", notifier.warning)
	}
	q.SetOnline(context.Background(), true)
	if len(notifier.success) != 1 {
		t.Fatalf("expected online toast, got %#v", notifier.success)
	}
}

func TestClearAndRemove(t *testing.T) {
	q, notifier, store := newTestQueue(false)
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) { return nil, nil }, Options{Description: "one"})
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) { return nil, nil }, Options{Description: "two"})

	pending := q.Pending()
	q.Remove(context.Background(), pending[0].ID)
	if q.Len() != 1 || q.Pending()[0].Description != "two" {
		t.Fatalf("unexpected queue after remove: %#v", q.Pending())
	}

	q.Clear(context.Background())
	if q.Len() != 0 {
		t.Fatal("expected empty queue after clear")
	}
	if store.cleared != 1 {
		t.Fatalf("expected persisted metadata cleared once, got %d", store.cleared)
	}
	found := false
	for _, msg := range notifier.info {
		if msg == "cleared 1 queued action(s)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected clear toast, got %#v", notifier.info)
	}
}

func TestLastSyncStampedAfterPass(t *testing.T) {
	q, _, _ := newTestQueue(false)
	_, _ = q.Dispatch(context.Background(), func(context.Context) (any, error) { return nil, nil }, Options{})
	if !q.LastSyncAt().IsZero() {
		t.Fatal("expected zero last sync before any pass")
	}
	q.SetOnline(context.Background(), true)
	if q.LastSyncAt().IsZero() {
		t.Fatal("expected last sync stamped after pass")
	}
}
