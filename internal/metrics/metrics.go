package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkzip"

var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Short links created.",
	})

	AllocationCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocation_collisions_total",
		Help:      "Random short code candidates rejected because the code was taken.",
	})

	AllocationExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocation_exhausted_total",
		Help:      "Shorten requests that ran out of allocation attempts.",
	})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Short code lookups by outcome.",
	}, []string{"outcome"})

	ClickEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "click_effects_total",
		Help:      "Click recording effects by effect (counter|event) and result (ok|error).",
	}, []string{"effect", "result"})

	ClicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_dropped_total",
		Help:      "Click jobs dropped because the dispatch queue was full or closed.",
	})

	TitleFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "title_fetches_total",
		Help:      "Page title fetches by result (ok|fallback).",
	}, []string{"result"})
)
