// Package metrics exports harness job records as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whisper-load.klederson.com/internal/harness"
)

const namespace = "whisper"

// Collector is a harness.Sink that keeps job counters and per-pair gauges.
type Collector struct {
	jobs       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	operations *prometheus.HistogramVec
	level      *prometheus.GaugeVec
	noisy      *prometheus.GaugeVec
	distance   *prometheus.GaugeVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Jobs completed, by cluster.",
			},
			[]string{"cluster"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deadline_misses_total",
				Help:      "Jobs that finished after their relative deadline, by cluster.",
			},
			[]string{"cluster"},
		),
		operations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_operations",
				Help:      "Operation count of each job before service level scaling.",
				Buckets:   prometheus.ExponentialBuckets(250, 2, 10),
			},
			[]string{"cluster"},
		),
		level: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_level",
				Help:      "Service level chosen for the pair's latest job.",
			},
			[]string{"pair"},
		),
		noisy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pair_noisy",
				Help:      "1 while the pair is inside a noise burst.",
			},
			[]string{"pair"},
		),
		distance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pair_distance_meters",
				Help:      "Sensor to source distance at the pair's latest job.",
			},
			[]string{"pair"},
		),
	}

	for _, col := range []prometheus.Collector{c.jobs, c.misses, c.operations, c.level, c.noisy, c.distance} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Record updates the metrics from one job.
func (c *Collector) Record(rec harness.JobRecord) error {
	cluster := strconv.Itoa(rec.Cluster)
	pair := strconv.Itoa(rec.Index)

	c.jobs.WithLabelValues(cluster).Inc()
	if rec.Missed {
		c.misses.WithLabelValues(cluster).Inc()
	}
	c.operations.WithLabelValues(cluster).Observe(float64(rec.Operations))
	c.level.WithLabelValues(pair).Set(float64(rec.Level))
	c.distance.WithLabelValues(pair).Set(rec.Distance)

	noisy := 0.0
	if rec.Noisy {
		noisy = 1
	}
	c.noisy.WithLabelValues(pair).Set(noisy)
	return nil
}

// Serve exposes g on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
