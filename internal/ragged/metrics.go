package ragged

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	materializations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ragged_materializations_total",
		Help: "Total number of windows copied into standalone buffers",
	})

	materializedItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ragged_materialized_items_total",
		Help: "Total number of items copied by materialization",
	})

	binopTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragged_binop_total",
		Help: "Binary operations by broadcasting path",
	}, []string{"path"})

	padpackNoop = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ragged_padpack_noop_total",
		Help: "Padpack calls on empty or already rectangular buffers",
	})

	padpackSlots = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ragged_padpack_slots",
		Help:    "Number of packed rows produced per padpack call",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	padpackFill = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ragged_padpack_fill_ratio",
		Help:    "Fraction of packed cells holding an item",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})
)
