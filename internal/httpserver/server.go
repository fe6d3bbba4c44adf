// Package httpserver binds the tool catalog to HTTP: credentialed auth
// endpoints, direct per-tool invocation, the JSON-RPC endpoint and its SSE
// push channel, plus an optional static setup directory.
package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/user/devsocial/internal/dispatch"
	"github.com/user/devsocial/internal/identity"
	"github.com/user/devsocial/internal/mcpserver"
	"github.com/user/devsocial/internal/types"
)

const defaultKeepalive = 15 * time.Second

// Server routes the HTTP surface. It implements http.Handler.
type Server struct {
	resolver   *identity.Resolver
	dispatcher *dispatch.Dispatcher
	rpc        *mcpserver.Server
	logger     *slog.Logger
	keepalive  time.Duration
	mux        *http.ServeMux
}

// NewServer wires the routes. setupDir, when non-empty, is served under
// /setup/ as static files.
func NewServer(resolver *identity.Resolver, dispatcher *dispatch.Dispatcher, rpc *mcpserver.Server, setupDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		resolver:   resolver,
		dispatcher: dispatcher,
		rpc:        rpc,
		logger:     logger,
		keepalive:  defaultKeepalive,
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleInfo)
	s.mux.HandleFunc("POST /auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /tools", s.handleToolList)
	s.mux.HandleFunc("POST /tools/{name}", s.handleToolCall)
	s.mux.HandleFunc("POST /mcp", s.handleRPC)
	s.mux.HandleFunc("GET /mcp", s.handleStream)
	if setupDir != "" {
		s.mux.Handle("GET /setup/", http.StripPrefix("/setup/", http.FileServer(http.Dir(setupDir))))
	}
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "devsocial",
		"version": mcpserver.ServerVersion,
		"status":  "running",
		"endpoints": map[string]string{
			"tools":  "/tools",
			"mcp":    "/mcp",
			"health": "/",
		},
	})
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	user, token, err := s.resolver.Signup(r.Context(), req.Username, req.Password, req.Bio)
	if err != nil {
		s.writeKindError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Account created successfully",
		"username": user.Username,
		"token":    token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	token, err := s.resolver.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeKindError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"username": req.Username,
		"token":    token,
	})
}

func (s *Server) handleToolList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": s.dispatcher.Registry().Descriptors(),
	})
}

type toolCallRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result := s.dispatcher.Invoke(r.Context(), name, req.Arguments, extractCredential(r))
	status := http.StatusOK
	if result.IsError {
		status = statusForKind(result.Kind)
	}
	writeJSON(w, status, result)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	reply, sessionID, err := s.rpc.Handle(r.Context(), body, extractCredential(r))
	if err != nil {
		s.logger.Debug("rpc parse failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if sessionID != "" {
		w.Header().Set("Mcp-Session-Id", sessionID)
	}
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// handleStream holds an SSE connection open for a previously initialized
// session. The session is forgotten when the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" || !s.rpc.Sessions().Has(sessionID) {
		writeError(w, http.StatusBadRequest, "Invalid or missing Mcp-Session-Id header")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.rpc.Sessions().Remove(sessionID)
			s.logger.Debug("stream closed", "session", sessionID)
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// extractCredential pulls whatever the caller supplied; the resolver decides
// which part its auth mode honors.
func extractCredential(r *http.Request) identity.Credential {
	var cred identity.Credential
	if username, password, ok := r.BasicAuth(); ok {
		cred.Username = username
		cred.Password = password
	}
	if token := r.Header.Get("X-Session-Token"); token != "" {
		cred.Token = token
	} else if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		cred.Token = strings.TrimPrefix(auth, "Bearer ")
	}
	return cred
}

func statusForKind(kind types.Kind) int {
	switch kind {
	case types.KindValidation, types.KindConflict:
		return http.StatusBadRequest
	case types.KindAuth:
		return http.StatusUnauthorized
	case types.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeKindError(w http.ResponseWriter, op string, err error) {
	kind := types.KindOf(err)
	if kind == types.KindInternal {
		s.logger.Error(op+" failed", "error", err)
	}
	writeError(w, statusForKind(kind), types.Message(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
