// Package store implements the relational collaborator interface on top of
// the Supabase PostgREST API. It is the only package that talks to the
// external store; everything it returns is kind-tagged or plain domain data.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/user/devsocial/internal/types"
)

// Store is a PostgREST-backed implementation of types.Store.
type Store struct {
	db      *supabase.Client
	timeout time.Duration
	retry   *RetryPolicy
}

// New creates a Store against the given Supabase project. Every call is
// bounded by timeout; a hung collaborator call fails the request instead of
// hanging it forever.
func New(url, key string, timeout time.Duration) (*Store, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "create store client")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: client, timeout: timeout, retry: DefaultRetryPolicy()}, nil
}

// do runs fn with a bounded wait and transient-error retry. The PostgREST
// client has no context plumbing, so on timeout we stop waiting; the
// underlying HTTP call is abandoned to finish on its own.
func (s *Store) do(ctx context.Context, op string, fn func() error) error {
	attempt := func() error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- fn() }()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return types.Wrap(types.KindInternal, ctx.Err(), "%s: store call timed out", op)
		}
	}
	return s.retry.Execute(ctx, attempt)
}

// isUniqueViolation reports whether err carries the postgres unique-constraint
// code. This is the authoritative conflict signal; application-level
// pre-checks are an optimization only.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// internalErr tags an unanticipated collaborator failure. The raw message
// stays behind the tag and never reaches a caller.
func internalErr(op string, err error) error {
	return types.Wrap(types.KindInternal, err, "%s failed", op)
}
