package sloghooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestKeysAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{})

	h.RedirectNarrowed("var:render:page:editor", []string{"a", "b"}, []string{"a"})
	h.EntryCorrupt("var:render:page:editor", "corrupt")

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	require.Equal(t, "varcache.redirect_narrowed", recs[0]["msg"])
	require.NotContains(t, buf.String(), "editor")
	require.Len(t, recs[0]["key"], 16)
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{ResolvedEvery: 5, Redact: func(s string) string { return s }})

	for i := 0; i < 10; i++ {
		h.ChainResolved("render", 1, true)
	}
	require.Len(t, records(t, &buf), 2)

	buf.Reset()
	h.TagChecksumError(3, errors.New("redis down"))
	recs := records(t, &buf)
	require.Len(t, recs, 1)
	require.Equal(t, "ERROR", recs[0]["level"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.ChainResolved("ns", 0, false)
	h.RedirectWritten("k", nil)
	h.UncacheableSkipped("k")
}
