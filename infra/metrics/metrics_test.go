package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveCommand("create", "ok", time.Millisecond)
	m.ObserveCommand("create", "ok", time.Millisecond)
	m.ObserveCommand("execute", "INCOMPATIBLE", time.Millisecond)
	m.SetPending(3)
	m.Swept(2)

	require.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("create", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("execute", "INCOMPATIBLE")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.pendingSwaps))
	require.Equal(t, 2.0, testutil.ToFloat64(m.swept))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.OutboxDelivered("settlement")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `junction_outbox_messages_total{result="acked",route="settlement"} 1`)
}
