package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/devsocial/internal/dispatch"
	"github.com/user/devsocial/internal/identity"
)

// Protocol constants reported by initialize.
const (
	ProtocolVersion = "1.0.0"
	ServerName      = "devsocial"
	ServerVersion   = "1.0.0"
)

// Server processes JSON-RPC payloads against the tool dispatcher.
type Server struct {
	dispatcher *dispatch.Dispatcher
	sessions   *SessionRegistry
	logger     *slog.Logger
}

// NewServer wires a JSON-RPC server over the dispatcher.
func NewServer(d *dispatch.Dispatcher, sessions *SessionRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dispatcher: d, sessions: sessions, logger: logger}
}

// Sessions exposes the registry for the push channel binding.
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// Handle processes one payload: a single request object or a batch array.
// It returns the reply (nil when every entry was a notification, a single
// Response for a single request, []Response for a batch) and the session id
// minted by an initialize, if any. A payload that is not valid JSON-RPC at
// all returns an error; per-request failures become error replies instead.
func (s *Server) Handle(ctx context.Context, body []byte, cred identity.Credential) (any, string, error) {
	requests, batch, err := parseBody(body)
	if err != nil {
		return nil, "", err
	}

	var sessionID string
	responses := make([]Response, 0, len(requests))
	for _, req := range requests {
		if req.Method == "" {
			continue
		}
		resp, minted := s.handleOne(ctx, req, cred)
		if minted != "" {
			sessionID = minted
		}
		responses = append(responses, resp)
	}

	switch len(responses) {
	case 0:
		return nil, sessionID, nil
	case 1:
		if !batch {
			return responses[0], sessionID, nil
		}
	}
	return responses, sessionID, nil
}

func (s *Server) handleOne(ctx context.Context, req Request, cred identity.Credential) (Response, string) {
	switch req.Method {
	case "initialize":
		id := s.sessions.Create()
		s.logger.Debug("session initialized", "session", id)
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": ServerName, "version": ServerVersion},
		}), id

	case "tools/list":
		return resultResponse(req.ID, map[string]any{
			"tools": s.dispatcher.Registry().Descriptors(),
		}), ""

	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return errorResponse(req.ID, codeServerError, "tools/call requires a tool name"), ""
		}
		result := s.dispatcher.Invoke(ctx, params.Name, params.Arguments, cred)
		return resultResponse(req.ID, result), ""

	case "ping":
		return resultResponse(req.ID, "pong"), ""

	default:
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Unknown method %s", req.Method)), ""
	}
}

// parseBody accepts a single object or an array, reporting which shape it
// saw so single requests get single replies.
func parseBody(body []byte) ([]Request, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty request body")
	}
	if trimmed[0] == '[' {
		var requests []Request
		if err := json.Unmarshal(trimmed, &requests); err != nil {
			return nil, false, fmt.Errorf("parse batch: %w", err)
		}
		return requests, true, nil
	}
	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, false, fmt.Errorf("parse request: %w", err)
	}
	return []Request{req}, false, nil
}
