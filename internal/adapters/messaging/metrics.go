package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_messages_published_total",
			Help: "Published messages by topic and result",
		},
		[]string{"topic", "result"},
	)

	messagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_messages_consumed_total",
			Help: "Consumed messages by topic and result",
		},
		[]string{"topic", "result"},
	)
)
