package metrics

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/whisper"
)

func TestCollectorRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	require.NoError(t, c.Record(harness.JobRecord{
		State: whisper.State{Index: 3, Noisy: true, Distance: 12.5}, Cluster: 1, Level: 2, Operations: 900, Missed: true,
	}))
	require.NoError(t, c.Record(harness.JobRecord{
		State: whisper.State{Index: 3, Distance: 12.75}, Cluster: 1, Level: 0, Operations: 400,
	}))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.jobs.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.misses.WithLabelValues("1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.level.WithLabelValues("3")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.noisy.WithLabelValues("3")))
	assert.Equal(t, 12.75, testutil.ToFloat64(c.distance.WithLabelValues("3")))

	n, err := testutil.GatherAndCount(reg, "whisper_job_operations")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollectorRejectsDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	require.NoError(t, c.Record(harness.JobRecord{State: whisper.State{Index: 0}, Operations: 10}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, addr, reg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, "whisper_jobs_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
