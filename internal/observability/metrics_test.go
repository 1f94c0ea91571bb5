package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ImportCandidates.WithLabelValues("saved").Add(3)

	assert.InDelta(t, 3, testutil.ToFloat64(a.ImportCandidates.WithLabelValues("saved")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.ImportCandidates.WithLabelValues("saved")), 0)
}
