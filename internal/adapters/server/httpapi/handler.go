// Package httpapi provides the REST adapter for the companion server.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/queue"
	"github.com/hylla/tavla/internal/remote"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	svc common.Service
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// createCardRequest is the POST /cards body.
type createCardRequest struct {
	BoardID     string   `json:"board_id"`
	ListID      string   `json:"list_id"`
	Position    int      `json:"position"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// moveCardRequest is the POST /cards/{id}/move body.
type moveCardRequest struct {
	ListID   string `json:"list_id"`
	Position int    `json:"position"`
}

// NewHandler constructs one HTTP API adapter over the client service.
func NewHandler(svc common.Service) *Handler {
	return &Handler{svc: svc}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.svc == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "client service is not configured",
		})
		return
	}
	path := normalizePath(r.URL.Path)
	switch {
	case path == "boards":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListBoards(w, r)
	case strings.HasPrefix(path, "boards/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleBoard(w, r, strings.TrimPrefix(path, "boards/"))
	case path == "queue":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, common.QueuePayloadFrom(h.svc.QueueState()))
	case path == "cards":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateCard(w, r)
	default:
		if cardID, ok := resolveCardMoveID(path); ok {
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, http.MethodPost)
				return
			}
			h.handleMoveCard(w, r, cardID)
			return
		}
		if cardID, ok := strings.CutPrefix(path, "cards/"); ok && cardID != "" && !strings.Contains(cardID, "/") {
			if r.Method != http.MethodDelete {
				writeMethodNotAllowed(w, http.MethodDelete)
				return
			}
			h.handleDeleteCard(w, r, cardID)
			return
		}
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListBoards serves GET `/boards`.
func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.Boards(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": boards})
}

// handleBoard serves GET `/boards/{id}`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request, boardID string) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" || strings.Contains(boardID, "/") {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	view, err := h.svc.Board(r.Context(), boardID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.BoardPayloadFrom(view))
}

// handleCreateCard serves POST `/cards`.
func (h *Handler) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	card, err := h.svc.CreateCard(r.Context(), app.CreateCardInput{
		BoardID:     req.BoardID,
		ListID:      req.ListID,
		Position:    req.Position,
		Title:       req.Title,
		Description: req.Description,
		Labels:      req.Labels,
	})
	if errors.Is(err, queue.ErrQueued) {
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// handleMoveCard serves POST `/cards/{id}/move`.
func (h *Handler) handleMoveCard(w http.ResponseWriter, r *http.Request, cardID string) {
	var req moveCardRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	card, err := h.svc.MoveCard(r.Context(), cardID, req.ListID, req.Position)
	if errors.Is(err, queue.ErrQueued) {
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleDeleteCard serves DELETE `/cards/{id}`.
func (h *Handler) handleDeleteCard(w http.ResponseWriter, r *http.Request, cardID string) {
	err := h.svc.DeleteCard(r.Context(), cardID)
	if errors.Is(err, queue.ErrQueued) {
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveCardMoveID parses `/cards/{id}/move` and returns `{id}`.
func resolveCardMoveID(path string) (string, bool) {
	const (
		prefix = "cards/"
		suffix = "/move"
	)
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps service errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, app.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, app.ErrNoSnapshot):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "backend_unreachable",
			Message: err.Error(),
		})
	case errors.As(err, &apiErr):
		writeJSONError(w, apiErr.StatusCode, APIError{
			Code:    "backend_error",
			Message: err.Error(),
		})
	case remote.IsUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "backend_unreachable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(app.ErrInvalidInput, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", app.ErrInvalidInput)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
