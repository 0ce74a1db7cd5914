// Package promhooks exports variation cache events as Prometheus metrics.
//
//	hooks, err := promhooks.New(prometheus.DefaultRegisterer)
//
// All series live under the "varcache" namespace:
//   - lookups_total{namespace,result}      result: hit | miss
//   - lookup_hops{namespace}               redirects followed per lookup
//   - redirects_written_total{kind}        kind: new | narrowed
//   - entries_corrupt_total{reason}        reason: corrupt | value_decode
//   - provider_set_rejected_total{frame}   frame: redirect | entry
//   - uncacheable_skipped_total
//   - tag_checksum_errors_total
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/varcache"
)

const metricsNamespace = "varcache"

type Hooks struct {
	lookups        *prometheus.CounterVec
	hops           *prometheus.HistogramVec
	redirects      *prometheus.CounterVec
	corrupt        *prometheus.CounterVec
	setRejected    *prometheus.CounterVec
	uncacheable    prometheus.Counter
	checksumErrors prometheus.Counter
}

var _ varcache.Hooks = (*Hooks)(nil)

// New registers the collectors with reg. Registering twice on the same
// registry fails; share one Hooks across caches instead.
func New(reg prometheus.Registerer) (h *Hooks, err error) {
	defer func() {
		// promauto panics on duplicate registration
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	f := promauto.With(reg)
	return &Hooks{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lookups_total",
			Help:      "Variation cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		hops: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "lookup_hops",
			Help:      "Redirects followed per lookup.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 16},
		}, []string{"namespace"}),
		redirects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "redirects_written_total",
			Help:      "Redirect frames written, new or replacing an existing one.",
		}, []string{"kind"}),
		corrupt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "entries_corrupt_total",
			Help:      "Frames deleted on read because they could not be decoded.",
		}, []string{"reason"}),
		setRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_set_rejected_total",
			Help:      "Writes the provider refused under pressure.",
		}, []string{"frame"}),
		uncacheable: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uncacheable_skipped_total",
			Help:      "Set calls skipped because max-age was zero.",
		}),
		checksumErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tag_checksum_errors_total",
			Help:      "Tag store failures while computing checksums.",
		}),
	}, nil
}

func (h *Hooks) ChainResolved(ns string, hops int, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.lookups.WithLabelValues(ns, result).Inc()
	h.hops.WithLabelValues(ns).Observe(float64(hops))
}

func (h *Hooks) RedirectWritten(string, []string) {
	h.redirects.WithLabelValues("new").Inc()
}

func (h *Hooks) RedirectNarrowed(string, []string, []string) {
	h.redirects.WithLabelValues("narrowed").Inc()
}

func (h *Hooks) EntryCorrupt(_ string, reason string) {
	h.corrupt.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(_ string, isRedirect bool) {
	frame := "entry"
	if isRedirect {
		frame = "redirect"
	}
	h.setRejected.WithLabelValues(frame).Inc()
}

func (h *Hooks) UncacheableSkipped(string) { h.uncacheable.Inc() }

func (h *Hooks) TagChecksumError(int, error) { h.checksumErrors.Inc() }
