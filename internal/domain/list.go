package domain

import (
	"strings"
	"time"
)

// List represents list data used by this package.
type List struct {
	ID         string
	BoardID    string
	Title      string
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
}

// NewList constructs a new value for this package.
func NewList(id, boardID, title string, position int, now time.Time) (List, error) {
	id = strings.TrimSpace(id)
	boardID = strings.TrimSpace(boardID)
	title = strings.TrimSpace(title)
	if id == "" {
		return List{}, ErrInvalidID
	}
	if boardID == "" {
		return List{}, ErrInvalidBoardID
	}
	if title == "" {
		return List{}, ErrInvalidTitle
	}
	if position < 0 {
		return List{}, ErrInvalidPosition
	}
	return List{
		ID:        id,
		BoardID:   boardID,
		Title:     title,
		Position:  position,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Rename renames the requested operation.
func (l *List) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	l.Title = title
	l.UpdatedAt = now.UTC()
	return nil
}

// SetPosition handles set position.
func (l *List) SetPosition(position int, now time.Time) error {
	if position < 0 {
		return ErrInvalidPosition
	}
	l.Position = position
	l.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the requested operation.
func (l *List) Archive(now time.Time) {
	ts := now.UTC()
	l.ArchivedAt = &ts
	l.UpdatedAt = ts
}

// Restore restores the requested operation.
func (l *List) Restore(now time.Time) {
	l.ArchivedAt = nil
	l.UpdatedAt = now.UTC()
}
