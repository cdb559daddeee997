package metrics

import (
	"net/http"

	"quotesignal/internal/application/service/stream"
	"quotesignal/internal/domain/entity/quote"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotesignal"

// Collector exports stream loop outcomes as Prometheus metrics.
type Collector struct {
	processed        *prometheus.CounterVec
	decodeFailures   prometheus.Counter
	publishFailures  prometheus.Counter
	recorderFailures prometheus.Counter
	receiveFailures  prometheus.Counter
	processingTime   prometheus.Histogram
}

var _ stream.Observer = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		processed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "records_processed_total", Help: "Records classified and published"},
			[]string{"signal"},
		),
		decodeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "decode_failures_total", Help: "Inbound payloads dropped as malformed"},
		),
		publishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "publish_failures_total", Help: "Enriched records that could not be published"},
		),
		recorderFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "recorder_failures_total", Help: "Published records a recorder failed to keep"},
		),
		receiveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "receive_failures_total", Help: "Transport errors while polling the inbound bus"},
		),
		processingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_time_ms",
			Help:      "Time from decode to classified record, in milliseconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	reg.MustRegister(
		c.processed,
		c.decodeFailures,
		c.publishFailures,
		c.recorderFailures,
		c.receiveFailures,
		c.processingTime,
	)
	return c
}

func (c *Collector) ObserveProcessed(verdict quote.Verdict, processingTimeMs float64) {
	c.processed.WithLabelValues(verdict.Signal).Inc()
	c.processingTime.Observe(processingTimeMs)
}

func (c *Collector) ObserveDecodeFailure()   { c.decodeFailures.Inc() }
func (c *Collector) ObservePublishFailure()  { c.publishFailures.Inc() }
func (c *Collector) ObserveRecorderFailure() { c.recorderFailures.Inc() }
func (c *Collector) ObserveReceiveFailure()  { c.receiveFailures.Inc() }

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewServer builds the /metrics server. The caller owns ListenAndServe and Shutdown.
func NewServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	return &http.Server{Addr: addr, Handler: mux}
}
