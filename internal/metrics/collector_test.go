package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadtools/plangen/internal/plan"
)

// gatherMetric returns the named metric family from the collector's
// registry, or nil when no sample was recorded yet.
func gatherMetric(t *testing.T, c *Collector, name string) *dto.MetricFamily {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// counterValue returns the counter sample carrying the given label value.
func counterValue(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCollectorGenerationOutcomes(t *testing.T) {
	c := NewCollector()

	c.GenerationSucceeded(120 * time.Millisecond)
	c.GenerationSucceeded(80 * time.Millisecond)
	c.GenerationFailed(5 * time.Millisecond)

	totals := gatherMetric(t, c, MetricGenerationsTotal)
	assert.Equal(t, 2.0, counterValue(totals, "status", "ok"))
	assert.Equal(t, 1.0, counterValue(totals, "status", "failed"))

	duration := gatherMetric(t, c, MetricGenerationDurationSeconds)
	require.NotNil(t, duration)
	require.Len(t, duration.GetMetric(), 1)
	hist := duration.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(3), hist.GetSampleCount())
	assert.InDelta(t, 0.205, hist.GetSampleSum(), 1e-9)
}

func TestCollectorObserveTree(t *testing.T) {
	c := NewCollector()

	root, err := plan.NewElement(plan.KindTestPlan, "plan")
	require.NoError(t, err)
	session, err := plan.NewElement(plan.KindSessionController, "customer")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tc, err := plan.NewElement(plan.KindTransactionController,
			fmt.Sprintf("state-%d", i))
		require.NoError(t, err)
		require.NoError(t, session.AddChild(tc))
	}
	require.NoError(t, root.AddChild(session))

	c.ObserveTree(plan.NewTree(root))

	elements := gatherMetric(t, c, MetricElementsTotal)
	assert.Equal(t, 1.0, counterValue(elements, "kind", "testPlan"))
	assert.Equal(t, 1.0, counterValue(elements, "kind", "sessionController"))
	assert.Equal(t, 3.0, counterValue(elements, "kind", "transactionController"))
}

func TestCollectorFilterApplied(t *testing.T) {
	c := NewCollector()

	c.FilterApplied("headers")
	c.FilterApplied("headers")
	c.FilterApplied("testdata")

	applications := gatherMetric(t, c, MetricFilterApplicationsTotal)
	assert.Equal(t, 2.0, counterValue(applications, "filter", "headers"))
	assert.Equal(t, 1.0, counterValue(applications, "filter", "testdata"))
}

func TestCollectorsAreIsolated(t *testing.T) {
	first := NewCollector()
	second := NewCollector()

	first.GenerationSucceeded(time.Millisecond)

	totals := gatherMetric(t, second, MetricGenerationsTotal)
	assert.Equal(t, 0.0, counterValue(totals, "status", "ok"))
}

func TestServeExposesRegistry(t *testing.T) {
	c := NewCollector()
	c.GenerationSucceeded(time.Millisecond)

	srv, err := Serve("127.0.0.1:0", c)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), MetricGenerationsTotal)
}

func TestServeRejectsBusyAddress(t *testing.T) {
	c := NewCollector()

	srv, err := Serve("127.0.0.1:0", c)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	_, err = Serve(srv.Addr(), c)
	assert.Error(t, err)
}
