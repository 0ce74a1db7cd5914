package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/varcache"
)

var _ varcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every record with component=varcache and the cache namespace.
func New(l *logrus.Logger, namespace string) LogrusLogger {
	return LogrusLogger{E: l.WithFields(logrus.Fields{"component": "varcache", "namespace": namespace})}
}

func (l LogrusLogger) Debug(msg string, f varcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f varcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f varcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f varcache.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f varcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			out[logrus.ErrorKey] = err
			continue
		}
		out[k] = v
	}
	return l.E.WithFields(out)
}
