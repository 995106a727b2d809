package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_requests_total",
		Help: "Total number of API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "treeadopt_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	AdmissionChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_admission_checks_total",
		Help: "Pin admission checks by result (admitted/rejected/unrestricted)",
	}, []string{"result"})
	PinsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treeadopt_pins_created_total",
		Help: "Total adopted-tree pins created",
	})
	LabelsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_nearest_roads_labels_total",
		Help: "Nearest-roads labels computed by outcome",
	}, []string{"outcome"})
	GeocodeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treeadopt_geocode_requests_total",
		Help: "Total reverse geocoding REST requests",
	})
	GeocodeSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treeadopt_geocode_success_total",
		Help: "Total reverse geocoding REST successes",
	})
	GeocodeFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treeadopt_geocode_fail_total",
		Help: "Total reverse geocoding REST failures",
	})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "treeadopt_geocode_duration_ms",
		Help:    "Reverse geocoding REST call duration in milliseconds",
		Buckets: []float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	GeocodeCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_geocode_cache_hits_total",
		Help: "Geocode cache hits by layer (lru/redis)",
	}, []string{"layer"})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treeadopt_geocode_cache_misses_total",
		Help: "Geocode cache misses",
	})
	ZoneCacheReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_zone_cache_reloads_total",
		Help: "Zone snapshot reloads by result",
	}, []string{"result"})
	RelabelZonesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treeadopt_relabel_zones_total",
		Help: "Zones processed by batch relabel by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(AdmissionChecksTotal)
	prometheus.MustRegister(PinsCreatedTotal)
	prometheus.MustRegister(LabelsTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeSuccessTotal)
	prometheus.MustRegister(GeocodeFailTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheMissesTotal)
	prometheus.MustRegister(ZoneCacheReloadsTotal)
	prometheus.MustRegister(RelabelZonesTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：在主入口挂载到 {API_BASE}/metrics。
func Handler() http.Handler { return promhttp.Handler() }
