package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promoResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_promo_resolutions_total",
		Help: "Promo code resolutions by matched kind and outcome.",
	}, []string{"kind", "outcome"})

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_stale_responses_total",
		Help: "Backend results discarded because a newer request had already been committed.",
	}, []string{"operation"})

	cartRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_refreshes_total",
		Help: "Cart refreshes by outcome.",
	}, []string{"outcome"})

	sessionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_session_write_conflicts_total",
		Help: "Optimistic session writes that lost a version race and were retried.",
	})
)
