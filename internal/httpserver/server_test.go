package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/devsocial/internal/config"
	"github.com/user/devsocial/internal/dispatch"
	"github.com/user/devsocial/internal/identity"
	"github.com/user/devsocial/internal/mcpserver"
	"github.com/user/devsocial/internal/social"
	"github.com/user/devsocial/internal/store/storetest"
)

func newTestServer(t *testing.T, mode config.AuthMode) *Server {
	t.Helper()
	fake := storetest.NewFake()
	resolver := identity.NewResolver(fake, identity.NewMemorySessionStore(), mode)
	svc := social.NewService(fake)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatch.NewDispatcher(dispatch.NewCatalog(resolver, svc), resolver, logger)
	rpc := mcpserver.NewServer(d, mcpserver.NewSessionRegistry(), logger)
	return NewServer(resolver, d, rpc, "", logger)
}

func doJSON(t *testing.T, s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func basicAuth(username, password string) http.Header {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth(username, password)
	return http.Header{"Authorization": req.Header["Authorization"]}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)
	rec := doJSON(t, s, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "devsocial" || body["status"] != "running" {
		t.Fatalf("body = %v", body)
	}
}

func TestSignup(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)

	rec := doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["username"] != "alice" {
		t.Fatalf("body = %v", body)
	}
	if token, _ := body["token"].(string); len(token) != 36 {
		t.Fatalf("token = %v", body["token"])
	}

	rec = doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"bob","password":"short"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password status = %d", rec.Code)
	}
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)
	doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`, nil)

	unknown := doJSON(t, s, http.MethodPost, "/auth/login", `{"username":"ghost","password":"secret1"}`, nil)
	wrongPass := doJSON(t, s, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong12"}`, nil)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d", unknown.Code, wrongPass.Code)
	}
	if decodeBody(t, unknown)["error"] != decodeBody(t, wrongPass)["error"] {
		t.Fatal("error messages differ between unknown user and wrong password")
	}
}

func TestLoginSuccess(t *testing.T) {
	s := newTestServer(t, config.AuthModeToken)
	doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`, nil)

	rec := doJSON(t, s, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if len(token) != 36 {
		t.Fatalf("token = %q", token)
	}

	header := http.Header{"X-Session-Token": []string{token}}
	rec = doJSON(t, s, http.MethodPost, "/tools/post_update", `{"arguments":{"content":"hi"}}`, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("tool call status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestToolCatalog(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)
	rec := doJSON(t, s, http.MethodGet, "/tools", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	tools, ok := decodeBody(t, rec)["tools"].([]any)
	if !ok || len(tools) != 17 {
		t.Fatalf("tools = %v", tools)
	}
	first := tools[0].(map[string]any)
	if first["name"] != "create_account" || first["inputSchema"] == nil {
		t.Fatalf("first tool = %v", first)
	}
}

func TestDirectToolCall(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)
	doJSON(t, s, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`, nil)

	rec := doJSON(t, s, http.MethodPost, "/tools/post_update", `{"arguments":{"content":"hello"}}`, basicAuth("alice", "secret1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["isError"] != nil {
		t.Fatalf("body = %v", body)
	}

	rec = doJSON(t, s, http.MethodPost, "/tools/post_update", `{"arguments":{"content":"hello"}}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/tools/no_such_tool", `{}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown tool status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/tools/get_global_feed", `{}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public tool status = %d", rec.Code)
	}
}

func TestRPCEndpoint(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)

	rec := doJSON(t, s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["result"] != "pong" {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, nil)
	if rec.Header().Get("Mcp-Session-Id") == "" {
		t.Fatal("initialize did not set Mcp-Session-Id")
	}

	rec = doJSON(t, s, http.MethodPost, "/mcp", `[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","id":2,"method":"nope"}]`, nil)
	var batch []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("batch decode: %v (%s)", err, rec.Body.String())
	}
	if len(batch) != 2 || batch[0]["result"] != "pong" || batch[1]["error"] == nil {
		t.Fatalf("batch = %v", batch)
	}

	rec = doJSON(t, s, http.MethodPost, "/mcp", `{broken`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed status = %d", rec.Code)
	}
}

func TestStreamRequiresSession(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)

	rec := doJSON(t, s, http.MethodGet, "/mcp", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing session status = %d", rec.Code)
	}

	header := http.Header{"Mcp-Session-Id": []string{"not-a-session"}}
	rec = doJSON(t, s, http.MethodGet, "/mcp", "", header)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown session status = %d", rec.Code)
	}
}

func TestStreamLifecycle(t *testing.T) {
	s := newTestServer(t, config.AuthModeBasic)
	s.keepalive = 5 * time.Millisecond

	init := doJSON(t, s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, nil)
	sessionID := init.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("no session id")
	}

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Mcp-Session-Id", sessionID)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, req)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()
	<-done

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, ": connected") || !strings.Contains(body, ": keepalive") {
		t.Fatalf("stream body = %q", body)
	}
	if s.rpc.Sessions().Has(sessionID) {
		t.Fatal("session survived disconnect")
	}
}
