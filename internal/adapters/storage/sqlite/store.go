// Package sqlite persists queue metadata and cached board snapshots.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/queue"
	"github.com/hylla/tavla/internal/remote"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// ErrNotFound reports a missing cached snapshot.
var ErrNotFound = errors.New("not found")

// Store represents store data used by this package.
type Store struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the requested operation.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate handles migrate.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS queue_actions (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			description TEXT NOT NULL,
			enqueued_at TEXT NOT NULL,
			retries INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			fetched_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lists (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			title TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			list_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			labels_json TEXT NOT NULL DEFAULT '[]',
			due_at TEXT,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_queue_actions_position ON queue_actions(position);`,
		`CREATE INDEX IF NOT EXISTS idx_lists_board_position ON lists(board_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_board_list_position ON cards(board_id, list_id, position);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// SaveQueue replaces the persisted queue metadata with the given records in
// order.
func (s *Store) SaveQueue(ctx context.Context, records []queue.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM queue_actions`); err != nil {
		return fmt.Errorf("clear queue_actions: %w", err)
	}
	for i, record := range records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO queue_actions(id, position, description, enqueued_at, retries)
			VALUES (?, ?, ?, ?, ?)
		`, record.ID, i, record.Description, ts(record.EnqueuedAt), record.Retries)
		if err != nil {
			return fmt.Errorf("insert queue_actions: %w", err)
		}
	}

	err = tx.Commit()
	return err
}

// ClearQueue empties the persisted queue metadata.
func (s *Store) ClearQueue(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM queue_actions`); err != nil {
		return fmt.Errorf("clear queue_actions: %w", err)
	}
	return nil
}

// LoadQueue lists persisted queue metadata in queue order.
func (s *Store) LoadQueue(ctx context.Context) ([]queue.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, enqueued_at, retries
		FROM queue_actions
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []queue.Record{}
	for rows.Next() {
		var (
			record     queue.Record
			enqueuedAt string
		)
		if err := rows.Scan(&record.ID, &record.Description, &enqueuedAt, &record.Retries); err != nil {
			return nil, err
		}
		record.EnqueuedAt = parseTS(enqueuedAt)
		out = append(out, record)
	}
	return out, rows.Err()
}

// RemoveQueued deletes one persisted queue record by id.
func (s *Store) RemoveQueued(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// SaveSnapshot caches one board with its lists and cards, replacing any
// previous snapshot of the same board.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot remote.BoardSnapshot, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	boardID := snapshot.Board.ID
	if _, err = tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, boardID); err != nil {
		return fmt.Errorf("clear board snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO boards(id, title, description, fetched_at)
		VALUES (?, ?, ?, ?)
	`, boardID, snapshot.Board.Title, snapshot.Board.Description, ts(fetchedAt))
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}

	for _, list := range snapshot.Lists {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lists(id, board_id, title, position)
			VALUES (?, ?, ?, ?)
		`, list.ID, boardID, list.Title, list.Position)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
	}
	for _, card := range snapshot.Cards {
		var labelsJSON []byte
		labelsJSON, err = json.Marshal(card.Labels)
		if err != nil {
			return fmt.Errorf("encode card labels: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cards(id, board_id, list_id, position, title, description, labels_json, due_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, card.ID, boardID, card.ListID, card.Position, card.Title, card.Description, string(labelsJSON), nullableTS(card.DueAt))
		if err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
	}

	err = tx.Commit()
	return err
}

// LoadSnapshot returns the cached snapshot for a board along with its fetch
// time. A board never cached reports ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, boardID string) (remote.BoardSnapshot, time.Time, error) {
	var (
		snapshot   remote.BoardSnapshot
		fetchedRaw string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, fetched_at
		FROM boards
		WHERE id = ?
	`, boardID)
	if err := row.Scan(&snapshot.Board.ID, &snapshot.Board.Title, &snapshot.Board.Description, &fetchedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return remote.BoardSnapshot{}, time.Time{}, ErrNotFound
		}
		return remote.BoardSnapshot{}, time.Time{}, err
	}

	lists, err := s.loadLists(ctx, boardID)
	if err != nil {
		return remote.BoardSnapshot{}, time.Time{}, err
	}
	cards, err := s.loadCards(ctx, boardID)
	if err != nil {
		return remote.BoardSnapshot{}, time.Time{}, err
	}
	snapshot.Lists = lists
	snapshot.Cards = cards
	return snapshot, parseTS(fetchedRaw), nil
}

// loadLists lists cached lists in board order.
func (s *Store) loadLists(ctx context.Context, boardID string) ([]remote.ListRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, title, position
		FROM lists
		WHERE board_id = ?
		ORDER BY position ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []remote.ListRecord{}
	for rows.Next() {
		var list remote.ListRecord
		if err := rows.Scan(&list.ID, &list.BoardID, &list.Title, &list.Position); err != nil {
			return nil, err
		}
		out = append(out, list)
	}
	return out, rows.Err()
}

// loadCards lists cached cards in list order.
func (s *Store) loadCards(ctx context.Context, boardID string) ([]remote.CardRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, list_id, position, title, description, labels_json, due_at
		FROM cards
		WHERE board_id = ?
		ORDER BY list_id ASC, position ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []remote.CardRecord{}
	for rows.Next() {
		var (
			card      remote.CardRecord
			labelsRaw string
			dueRaw    sql.NullString
		)
		if err := rows.Scan(&card.ID, &card.BoardID, &card.ListID, &card.Position, &card.Title, &card.Description, &labelsRaw, &dueRaw); err != nil {
			return nil, err
		}
		if strings.TrimSpace(labelsRaw) == "" {
			labelsRaw = "[]"
		}
		if err := json.Unmarshal([]byte(labelsRaw), &card.Labels); err != nil {
			return nil, fmt.Errorf("decode cards.labels_json: %w", err)
		}
		card.DueAt = parseNullTS(dueRaw)
		out = append(out, card)
	}
	return out, rows.Err()
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
