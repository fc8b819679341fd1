package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var UrlPreviewsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_url_previews_generated_total",
}, []string{"type"})
var UrlPreviewFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_url_preview_failures_total",
}, []string{"reason"})
var FetchedBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "previewer_fetched_bytes_total",
})
var FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name: "previewer_fetch_duration_seconds",
})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_cache_misses_total",
}, []string{"cache"})
var CacheEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_cache_evictions_total",
}, []string{"cache", "reason"})
var CacheNumItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "previewer_cache_num_items",
}, []string{"cache"})
var WorkersRunning = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "previewer_workers_running",
}, []string{"queue"})
var ThumbnailsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "previewer_thumbnails_generated_total",
}, []string{"width", "height"})

func init() {
	prometheus.MustRegister(UrlPreviewsGenerated)
	prometheus.MustRegister(UrlPreviewFailures)
	prometheus.MustRegister(FetchedBytes)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheEvictions)
	prometheus.MustRegister(CacheNumItems)
	prometheus.MustRegister(WorkersRunning)
	prometheus.MustRegister(ThumbnailsGenerated)
}
