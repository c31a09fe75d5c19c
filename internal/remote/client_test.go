package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientGetBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/boards/b1" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %q", r.Method)
		}
		snap := BoardSnapshot{
			Board: BoardRecord{ID: "b1", Title: "Roadmap"},
			Lists: []ListRecord{{ID: "l1", BoardID: "b1", Title: "To Do", Position: 0}},
			Cards: []CardRecord{{ID: "c1", BoardID: "b1", ListID: "l1", Title: "Ship"}},
		}
		writeEnvelope(t, w, snap)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	snap, err := c.GetBoard(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if snap.Board.ID != "b1" || len(snap.Lists) != 1 || len(snap.Cards) != 1 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}

func TestClientCreateCardSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		var in CardRecord
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		in.ID = "c-new"
		writeEnvelope(t, w, in)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithToken("secret"))
	out, err := c.CreateCard(context.Background(), CardRecord{BoardID: "b1", ListID: "l1", Title: "New"})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	if out.ID != "c-new" || out.Title != "New" {
		t.Fatalf("unexpected created card %#v", out)
	}
}

func TestClientAPIErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"title is required"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateCard(context.Background(), CardRecord{})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "title is required" {
		t.Fatalf("unexpected api error %#v", apiErr)
	}
	if IsUnavailable(err) {
		t.Fatal("application error must not classify as connectivity loss")
	}
}

func TestClientTransportErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, WithTimeout(time.Second))
	err := c.Health(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnavailable(err) {
		t.Fatalf("expected connectivity classification, got %v", err)
	}
}

func TestMonitorReportsEdgesOnly(t *testing.T) {
	checker := &scriptedChecker{results: []error{
		nil,
		nil,
		&TransportError{Op: "GET /api/health", Err: errors.New("refused")},
		&TransportError{Op: "GET /api/health", Err: errors.New("refused")},
		nil,
	}}
	var edges []bool
	m := NewMonitor(checker, time.Minute, func(online bool) {
		edges = append(edges, online)
	})

	if !m.Check(context.Background()) {
		t.Fatal("expected initial online state")
	}
	for i := 0; i < 4; i++ {
		m.observe(context.Background())
	}
	if len(edges) != 2 || edges[0] != false || edges[1] != true {
		t.Fatalf("unexpected edges %#v", edges)
	}
	if !m.Online() {
		t.Fatal("expected monitor back online")
	}
}

func TestMonitorTreatsAPIErrorAsOnline(t *testing.T) {
	checker := &scriptedChecker{results: []error{&APIError{StatusCode: 500}}}
	m := NewMonitor(checker, time.Minute, nil)
	if !m.Check(context.Background()) {
		t.Fatal("an answering backend counts as online")
	}
}

// scriptedChecker replays a fixed sequence of health results.
type scriptedChecker struct {
	results []error
	calls   int
}

func (s *scriptedChecker) Health(context.Context) error {
	if s.calls >= len(s.results) {
		return nil
	}
	err := s.results[s.calls]
	s.calls++
	return err
}

// writeEnvelope wraps a payload in the backend response envelope.
func writeEnvelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	encoded, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(envelope{Data: encoded}); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
}
