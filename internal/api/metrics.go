// SPDX-License-Identifier: MIT

package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memed_render_duration_seconds",
		Help:    "Duration of meme render operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2.0, 10), // 5ms .. ~2.5s
	})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memed_renders_total",
		Help: "Number of meme renders by cache result",
	}, []string{"cache"})

	sharesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_shares_total",
		Help: "Number of memes shared to the gallery",
	})

	fileRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memed_file_requests_denied_total",
		Help: "Number of file requests denied for security reasons",
	}, []string{"reason"})

	fileRequestsAllowedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_file_requests_allowed_total",
		Help: "Number of file requests allowed",
	})

	fileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_file_cache_hits_total",
		Help: "Number of file requests served as 304 Not Modified",
	})

	fileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_file_cache_misses_total",
		Help: "Number of file requests resulting in 200 OK (content served)",
	})
)

func recordRender(duration time.Duration, cacheHit bool) {
	renderDuration.Observe(duration.Seconds())
	if cacheHit {
		rendersTotal.WithLabelValues("hit").Inc()
	} else {
		rendersTotal.WithLabelValues("miss").Inc()
	}
}

func recordShare() {
	sharesTotal.Inc()
}

func recordFileRequestAllowed() {
	fileRequestsAllowedTotal.Inc()
}

func recordFileRequestDenied(reason string) {
	fileRequestsDeniedTotal.WithLabelValues(reason).Inc()
}

func recordFileCacheHit() {
	fileCacheHitsTotal.Inc()
}

func recordFileCacheMiss() {
	fileCacheMissesTotal.Inc()
}
