package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBidAccepted(false)
	c.RecordBidAccepted(true)
	c.RecordBidRejected("bid_too_low")
	c.RecordBidRejected("bid_too_low")
	c.RecordBidRejected("auction_closed")
	c.RecordCommitConflict()
	c.RecordWinnerResolution("resolved")
	c.RecordHTTPRequest(http.MethodPost, http.StatusCreated)

	require.Equal(t, 2.0, testutil.ToFloat64(c.bidsAccepted))
	require.Equal(t, 1.0, testutil.ToFloat64(c.extensions))
	require.Equal(t, 2.0, testutil.ToFloat64(c.bidsRejected.WithLabelValues("bid_too_low")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.bidsRejected.WithLabelValues("auction_closed")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.commitConflicts))
	require.Equal(t, 1.0, testutil.ToFloat64(c.resolutions.WithLabelValues("resolved")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "201")))
}

func TestCollector_DoubleRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewCollector(reg)
	require.Panics(t, func() { NewCollector(reg) })
}

func TestHandler_ExposesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordBidAccepted(true)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "auction_bids_accepted_total 1")
	require.Contains(t, string(body), "auction_deadline_extensions_total 1")
}
