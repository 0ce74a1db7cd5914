package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/varcache"
)

var _ varcache.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "varcache.<namespace>".
func New(l *zap.Logger, namespace string) ZapLogger {
	return ZapLogger{L: l.Named("varcache").Named(namespace)}
}

func (z ZapLogger) Debug(msg string, f varcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f varcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f varcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f varcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f varcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]zap.Field, 0, len(f))
	for _, k := range names {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case []string:
			out = append(out, zap.Strings(k, v))
		case string:
			out = append(out, zap.String(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
