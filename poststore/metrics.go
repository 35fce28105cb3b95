package poststore

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	persistDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "blogger_store_persist_duration_seconds",
		Help:    "Time taken to write the post collection to storage",
		Buckets: prometheus.DefBuckets,
	})
	mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blogger_store_mutations_total",
		Help: "Post store mutations by operation and result",
	}, []string{"op", "result"})
	postsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blogger_store_posts",
		Help: "Number of posts currently held by the store",
	})
)

func init() {
	prometheus.MustRegister(persistDuration, mutations, postsTotal)
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mutations.WithLabelValues(op, result).Inc()
}
