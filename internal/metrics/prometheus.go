package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ExoPexodus/crimson-cloud-command/internal/logger"
)

var (
	PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoscaler_poll_cycles_total",
		Help: "Poll cycles run per pool.",
	}, []string{"pool_id"})

	CollectionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoscaler_collection_errors_total",
		Help: "Failed metric collections per pool.",
	}, []string{"pool_id"})

	ScalingEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoscaler_scaling_events_total",
		Help: "Executed scaling actions per pool and direction.",
	}, []string{"pool_id", "action"})

	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoscaler_decisions_total",
		Help: "Scaling decisions per pool and action, including NO_CHANGE.",
	}, []string{"pool_id", "action"})

	PoolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoscaler_pool_size",
		Help: "Last observed instance count per pool.",
	}, []string{"pool_id"})

	PoolCPU = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoscaler_pool_cpu_percent",
		Help: "Last observed average CPU utilization per pool.",
	}, []string{"pool_id"})

	PoolMemory = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoscaler_pool_memory_percent",
		Help: "Last observed average RAM utilization per pool.",
	}, []string{"pool_id"})

	ScheduleActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoscaler_schedule_active",
		Help: "1 while a schedule window holds the pool at a fixed size.",
	}, []string{"pool_id"})

	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoscaler_heartbeats_total",
		Help: "Heartbeat attempts by outcome.",
	}, []string{"outcome"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoscaler_circuit_breaker_state",
		Help: "Collector circuit state: 0 closed, 1 open, 2 half-open.",
	}, []string{"name"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer exposes /metrics on its own port, detached from the API
// listener so scrapes survive API restarts.
func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	addr := ":" + strconv.Itoa(port)
	logger.Infof("Metrics server listening on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()
}
