package promhooks

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersFollowEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg)
	require.NoError(t, err)

	h.ChainResolved("render", 2, true)
	h.ChainResolved("render", 0, false)
	h.ChainResolved("render", 1, true)
	h.RedirectWritten("k", []string{"a"})
	h.RedirectNarrowed("k", []string{"a", "b"}, []string{"a"})
	h.EntryCorrupt("k", "value_decode")
	h.ProviderSetRejected("k", true)
	h.UncacheableSkipped("page")
	h.TagChecksumError(2, errors.New("x"))

	require.Equal(t, 2.0, testutil.ToFloat64(h.lookups.WithLabelValues("render", "hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("render", "miss")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.redirects.WithLabelValues("new")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.redirects.WithLabelValues("narrowed")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.corrupt.WithLabelValues("value_decode")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.setRejected.WithLabelValues("redirect")))
	require.Equal(t, 1.0, testutil.ToFloat64(h.uncacheable))
	require.Equal(t, 1.0, testutil.ToFloat64(h.checksumErrors))
	require.Equal(t, 1, testutil.CollectAndCount(h.hops))
}

func TestDuplicateRegistrationIsError(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
