package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/varcache"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core), "render")

	l.Debug("redirect replaced", varcache.Fields{
		"key":  "page:anon",
		"from": []string{"a", "b"},
		"to":   []string{"a"},
	})
	l.Warn("tag checksum error", varcache.Fields{"err": errors.New("redis down")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, "varcache.render", entries[0].LoggerName)
	require.Equal(t, "page:anon", entries[0].ContextMap()["key"])
	require.Equal(t, []interface{}{"a", "b"}, entries[0].ContextMap()["from"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "redis down", entries[1].ContextMap()["err"])
}

func TestZapLoggerNoFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := ZapLogger{L: zap.New(core)}
	l.Info("closed", nil)
	l.Debug("filtered", nil)
	require.Equal(t, 1, logs.Len())
}
