package domain

import (
	"strings"
	"time"
)

// Board represents board data used by this package.
type Board struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewBoard constructs a new value for this package.
func NewBoard(id, title, description string, now time.Time) (Board, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if id == "" {
		return Board{}, ErrInvalidID
	}
	if title == "" {
		return Board{}, ErrInvalidTitle
	}
	return Board{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Rename renames the requested operation.
func (b *Board) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	b.Title = title
	b.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the requested operation.
func (b *Board) Archive(now time.Time) {
	ts := now.UTC()
	b.ArchivedAt = &ts
	b.UpdatedAt = ts
}

// Restore restores the requested operation.
func (b *Board) Restore(now time.Time) {
	b.ArchivedAt = nil
	b.UpdatedAt = now.UTC()
}
