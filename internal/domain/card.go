package domain

import (
	"slices"
	"strings"
	"time"
)

// Card represents card data used by this package.
type Card struct {
	ID          string
	BoardID     string
	ListID      string
	Position    int
	Title       string
	Description string
	Labels      []string
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// CardInput holds input values for card construction.
type CardInput struct {
	ID          string
	BoardID     string
	ListID      string
	Position    int
	Title       string
	Description string
	Labels      []string
	DueAt       *time.Time
}

// NewCard constructs a new value for this package.
func NewCard(in CardInput, now time.Time) (Card, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.BoardID = strings.TrimSpace(in.BoardID)
	in.ListID = strings.TrimSpace(in.ListID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Card{}, ErrInvalidID
	}
	if in.BoardID == "" {
		return Card{}, ErrInvalidBoardID
	}
	if in.ListID == "" {
		return Card{}, ErrInvalidListID
	}
	if in.Title == "" {
		return Card{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Card{}, ErrInvalidPosition
	}

	return Card{
		ID:          in.ID,
		BoardID:     in.BoardID,
		ListID:      in.ListID,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Labels:      normalizeLabels(in.Labels),
		DueAt:       normalizeDueAt(in.DueAt),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Move moves the card to a list position.
func (c *Card) Move(listID string, position int, now time.Time) error {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return ErrInvalidListID
	}
	if position < 0 {
		return ErrInvalidPosition
	}
	c.ListID = listID
	c.Position = position
	c.UpdatedAt = now.UTC()
	return nil
}

// UpdateDetails updates state for the requested operation.
func (c *Card) UpdateDetails(title, description string, labels []string, dueAt *time.Time, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	c.Title = title
	c.Description = strings.TrimSpace(description)
	c.Labels = normalizeLabels(labels)
	c.DueAt = normalizeDueAt(dueAt)
	c.UpdatedAt = now.UTC()
	return nil
}

// Archive archives the requested operation.
func (c *Card) Archive(now time.Time) {
	ts := now.UTC()
	c.ArchivedAt = &ts
	c.UpdatedAt = ts
}

// Restore restores the requested operation.
func (c *Card) Restore(now time.Time) {
	c.ArchivedAt = nil
	c.UpdatedAt = now.UTC()
}

// normalizeDueAt handles normalize due at.
func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}

// normalizeLabels handles normalize labels.
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}
