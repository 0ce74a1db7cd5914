// Package varcache implements a context-variant cache: values are stored under
// base keys, but which concrete entry a caller sees depends on cache contexts
// (named dimensions of variation such as "user.roles" or "url") resolved for
// the current request.
//
// Components:
//   - Provider: byte store with TTL (e.g. Ristretto, BigCache, Redis, Valkey).
//   - Codec[V]: (de)serializes V <-> []byte.
//   - ContextResolver: maps a context name to a token for the current request.
//   - TagStore: per-tag invalidation counters; entries carry a checksum.
//
// Redirects:
//
// The first Set under a base key stores a redirect at the base key naming the
// contexts to resolve. Readers resolve those contexts, append the tokens to the
// base keys and follow the chain until they hit an entry or a miss:
//
//	page                -> redirect{user.roles}
//	page:anon           -> redirect{url, user.roles}
//	page:/about:anon    -> entry
//
// A later Set whose contexts share only part of an existing redirect narrows it
// to the common contexts and inserts an intermediate redirect, so variations
// that agree on a subset of contexts share a prefix path.
//
// Storage keys:
//
//	var:<ns>:<id>   - redirects and entries
package varcache
