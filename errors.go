package varcache

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyKeys        = errors.New("varcache: at least one base key is required")
	ErrNoContextOverlap = errors.New("varcache: cache contexts do not overlap with existing redirect")
	ErrRedirectCycle    = errors.New("varcache: redirect chain does not terminate")
)

// ConflictError is returned by Set when the contexts of a new item share
// nothing with the redirect stored at its base key. Items under the same base
// keys must agree on at least one context; this is a modelling error in the
// caller and is never retried.
type ConflictError struct {
	Key      string
	Existing []string
	New      []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("varcache: redirect at %q varies by [%s], new item varies by [%s]: no common context",
		e.Key, strings.Join(e.Existing, ", "), strings.Join(e.New, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrNoContextOverlap }

// ContextError reports a cache context that could not be resolved to a token.
type ContextError struct {
	Context string
	Err     error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("varcache: resolve context %q: %v", e.Context, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }
