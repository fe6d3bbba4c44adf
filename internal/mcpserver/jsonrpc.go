// Package mcpserver implements the batched JSON-RPC binding of the tool
// catalog: initialize, tools/list, tools/call and ping, plus the session
// registry backing the push channel.
package mcpserver

import "encoding/json"

// JSON-RPC error codes used by this binding.
const (
	codeMethodNotFound = -32601
	codeServerError    = -32000
)

// Request is one incoming JSON-RPC call. The ID is kept raw so numbers and
// strings echo back exactly as the caller sent them.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one outgoing JSON-RPC reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a failed reply.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func resultResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
}
