package varcache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around your logging
// stack (see log/zap, log/logrus, log/slog). If nil in Options, logging is off.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they run on hot paths.
type Hooks interface {
	// A read resolved its chain. hops counts redirects followed.
	ChainResolved(namespace string, hops int, hit bool)

	// A redirect was written pointing readers at contexts.
	RedirectWritten(storageKey string, contexts []string)

	// An existing redirect was replaced by one over different contexts.
	RedirectNarrowed(storageKey string, from, to []string)

	// A frame was deleted by the cache on read.
	// reason ∈ {"corrupt", "value_decode"}
	EntryCorrupt(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isRedirect bool)

	// Set was called with MaxAge == 0.
	UncacheableSkipped(id string)

	// TagStore failed to compute a checksum for count tags.
	TagChecksumError(count int, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) ChainResolved(string, int, bool)             {}
func (NopHooks) RedirectWritten(string, []string)            {}
func (NopHooks) RedirectNarrowed(string, []string, []string) {}
func (NopHooks) EntryCorrupt(string, string)                 {}
func (NopHooks) ProviderSetRejected(string, bool)            {}
func (NopHooks) UncacheableSkipped(string)                   {}
func (NopHooks) TagChecksumError(int, error)                 {}
