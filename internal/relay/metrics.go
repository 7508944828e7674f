package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClientMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_client_messages_total",
		Help: "Messages received from the client connection",
	})

	metricModelMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_model_messages_total",
		Help: "Messages received from the model connection",
	})

	metricMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_malformed_messages_total",
		Help: "Inbound messages dropped as unparseable",
	})

	metricTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_truncations_total",
		Help: "Truncate requests sent upstream after barge-in",
	})

	metricTruncateElapsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_truncate_elapsed_ms",
		Help:    "Heard milliseconds reported in truncate requests",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 12),
	})

	metricQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_queue_dropped_total",
		Help: "Model-bound messages dropped by the bounded pending queue",
	})

	metricModelConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_model_connects_total",
		Help: "Successful model connection establishments",
	})

	metricModelDialFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_model_dial_failures_total",
		Help: "Failed model connection attempts",
	})

	metricClientReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_client_replaced_total",
		Help: "Client connections force-closed by a newer accept",
	})

	metricFunctionCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_function_calls_total",
		Help: "Function-call dispatches by outcome",
	}, []string{"outcome"})
)
