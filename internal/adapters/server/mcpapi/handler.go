// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// client service, so local agents can read and mutate the active board.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/queue"
	"github.com/hylla/tavla/internal/remote"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing board and queue tools.
func NewHandler(cfg Config, svc common.Service) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("client service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, svc)
	registerQueueTool(mcpSrv, svc)
	registerCardTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tavla"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers `tavla.list_boards` and `tavla.board_snapshot`.
func registerBoardTools(srv *mcpserver.MCPServer, svc common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.list_boards",
			mcp.WithDescription("List boards available on the backend."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boards, err := svc.Boards(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"boards": boards})
			if err != nil {
				return nil, fmt.Errorf("encode list_boards result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.board_snapshot",
			mcp.WithDescription("Return one board with its lists and cards, falling back to the cached snapshot when the backend is unreachable."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := svc.Board(ctx, boardID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.BoardPayloadFrom(view))
			if err != nil {
				return nil, fmt.Errorf("encode board_snapshot result: %w", err)
			}
			return result, nil
		},
	)
}

// registerQueueTool registers `tavla.queue_state`.
func registerQueueTool(srv *mcpserver.MCPServer, svc common.QueueReader) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.queue_state",
			mcp.WithDescription("Return connectivity and the pending offline actions."),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := mcp.NewToolResultJSON(common.QueuePayloadFrom(svc.QueueState()))
			if err != nil {
				return nil, fmt.Errorf("encode queue_state result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCardTools registers create, move, and delete card tools.
func registerCardTools(srv *mcpserver.MCPServer, svc common.CardService) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.create_card",
			mcp.WithDescription("Create a card; while offline the action is queued for later sync."),
			mcp.WithString("board_id", mcp.Required(), mcp.Description("Board identifier")),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
			mcp.WithNumber("position", mcp.Description("Position within the list")),
			mcp.WithString("description", mcp.Description("Optional markdown body")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardID, err := req.RequireString("board_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			card, err := svc.CreateCard(ctx, app.CreateCardInput{
				BoardID:     boardID,
				ListID:      listID,
				Position:    req.GetInt("position", 0),
				Title:       title,
				Description: req.GetString("description", ""),
			})
			if errors.Is(err, queue.ErrQueued) {
				return queuedToolResult()
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode create_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.move_card",
			mcp.WithDescription("Move a card to another list; while offline the action is queued for later sync."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("Target list identifier")),
			mcp.WithNumber("position", mcp.Description("Position within the target list")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			card, err := svc.MoveCard(ctx, cardID, listID, req.GetInt("position", 0))
			if errors.Is(err, queue.ErrQueued) {
				return queuedToolResult()
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(card)
			if err != nil {
				return nil, fmt.Errorf("encode move_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.delete_card",
			mcp.WithDescription("Delete a card; while offline the action is queued for later sync."),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			err = svc.DeleteCard(ctx, cardID)
			if errors.Is(err, queue.ErrQueued) {
				return queuedToolResult()
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": cardID})
			if err != nil {
				return nil, fmt.Errorf("encode delete_card result: %w", err)
			}
			return result, nil
		},
	)
}

// queuedToolResult reports a deferred action without treating it as a failure.
func queuedToolResult() (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(map[string]any{"queued": true})
	if err != nil {
		return nil, fmt.Errorf("encode queued result: %w", err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	var apiErr *remote.APIError
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrInvalidInput):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, app.ErrNoSnapshot):
		return mcp.NewToolResultError("backend_unreachable: " + err.Error())
	case errors.As(err, &apiErr):
		return mcp.NewToolResultError("backend_error: " + err.Error())
	case remote.IsUnavailable(err):
		return mcp.NewToolResultError("backend_unreachable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
