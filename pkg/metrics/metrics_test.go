package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/synaptic-mem/engram/pkg/metrics"
)

func TestNewRegistersAndIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.IngestTotal.WithLabelValues("created").Inc()
	m.DedupHitsTotal.WithLabelValues("exact").Inc()
	m.EngramsDecayed.Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupHitsTotal.WithLabelValues("exact")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EngramsDecayed))
}
