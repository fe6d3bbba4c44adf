// Package dispatch maps tool names to handlers and normalizes every handler
// outcome into a result envelope. It is the single boundary where errors of
// any kind become error-marked text results; transports above it never see a
// raw handler failure.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/user/devsocial/internal/identity"
	"github.com/user/devsocial/internal/types"
)

// Descriptor describes one tool in the catalog.
type Descriptor struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	RequiresAuth bool            `json:"-"`
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the envelope every tool invocation produces, success or failure.
// Kind stays off the wire; transports use it to pick a status code instead
// of inspecting the error text.
type Result struct {
	Content []Content  `json:"content"`
	IsError bool       `json:"isError,omitempty"`
	Kind    types.Kind `json:"-"`
}

// Caller carries the resolved identity plus the raw credential, for the few
// tools that consume the credential directly.
type Caller struct {
	Identity identity.Identity
	Cred     identity.Credential
}

// HandlerFunc executes one tool. It returns display text; errors are
// normalized by the dispatcher.
type HandlerFunc func(ctx context.Context, args json.RawMessage, caller Caller) (string, error)

type tool struct {
	desc    Descriptor
	handler HandlerFunc
}

// Registry holds the tool catalog in registration order.
type Registry struct {
	tools []tool
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a tool. Registering a duplicate name panics; the catalog is
// assembled once at startup and a duplicate is a programming error.
func (r *Registry) Register(desc Descriptor, handler HandlerFunc) {
	if _, ok := r.index[desc.Name]; ok {
		panic(fmt.Sprintf("dispatch: duplicate tool %q", desc.Name))
	}
	r.index[desc.Name] = len(r.tools)
	r.tools = append(r.tools, tool{desc: desc, handler: handler})
}

// Descriptors returns the catalog in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.desc
	}
	return out
}

func (r *Registry) lookup(name string) (tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return tool{}, false
	}
	return r.tools[i], true
}

// Dispatcher resolves identity and runs tools from a registry.
type Dispatcher struct {
	registry *Registry
	resolver *identity.Resolver
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher over the given registry and resolver.
func NewDispatcher(registry *Registry, resolver *identity.Resolver, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, resolver: resolver, logger: logger}
}

// Registry exposes the catalog for the transport bindings.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke runs the named tool. Unknown names fail without touching any
// handler. Identity is resolved only for tools that declare they need it, so
// public tools work with no credential at all.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args json.RawMessage, cred identity.Credential) Result {
	t, ok := d.registry.lookup(name)
	if !ok {
		return errorResult(types.KindNotFound, fmt.Sprintf("unknown tool: %s", name))
	}

	caller := Caller{Cred: cred}
	if t.desc.RequiresAuth {
		id, err := d.resolver.Resolve(ctx, cred)
		if err != nil {
			d.logger.Debug("auth failed", "tool", name, "error", err)
			return errorResult(types.KindOf(err), types.Message(err))
		}
		caller.Identity = *id
	}

	text, err := d.run(ctx, t, args, caller)
	if err != nil {
		d.logger.Debug("tool failed", "tool", name, "kind", types.KindOf(err), "error", err)
		return errorResult(types.KindOf(err), types.Message(err))
	}
	return textResult(text)
}

// run isolates handler panics so one bad invocation cannot take the process
// down with it.
func (d *Dispatcher) run(ctx context.Context, t tool, args json.RawMessage, caller Caller) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", t.desc.Name, "panic", r)
			err = types.E(types.KindInternal, "tool %s failed", t.desc.Name)
		}
	}()
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return t.handler(ctx, args, caller)
}

func textResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

func errorResult(kind types.Kind, msg string) Result {
	return Result{
		Content: []Content{{Type: "text", Text: "Error: " + msg}},
		IsError: true,
		Kind:    kind,
	}
}

// decodeArgs unmarshals tool arguments, tagging malformed input as a
// validation failure.
func decodeArgs(args json.RawMessage, dest any) error {
	if err := json.Unmarshal(args, dest); err != nil {
		return types.Wrap(types.KindValidation, err, "invalid arguments")
	}
	return nil
}
