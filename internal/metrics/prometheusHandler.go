package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var embeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "embedding_requests_total",
	Help: "Embeddings produced, labelled by whether the remote model or the hash fallback served them",
}, []string{"source"})

var ingestBatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingest_batches_total",
	Help: "Ingestion batches labelled by outcome",
}, []string{"outcome"})

var chunksImported = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ingest_chunks_imported_total",
	Help: "Chunks written to the vector store",
})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"service"})

var activeIngestWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_ingest_workers",
	Help: "Number of ingest workers currently running",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"

	BatchImported  = "imported"
	BatchDuplicate = "duplicate"
	BatchFailed    = "failed"
)

func CountEmbedding(source string) {
	embeddingRequests.WithLabelValues(source).Inc()
}

func CountBatch(outcome string, chunks int) {
	ingestBatches.WithLabelValues(outcome).Inc()
	if outcome == BatchImported {
		chunksImported.Add(float64(chunks))
	}
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func IncrementActiveWorkerCount() {
	activeIngestWorkers.Inc()
}

func DecrementActiveWorkerCount() {
	activeIngestWorkers.Dec()
}
