package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://Docs.Google.com/spreadsheets/d/x/export?format=csv": "docs.google.com",
		"example.com/path": "example.com",
		"http://":          "unknown",
	}
	for in, want := range tests {
		require.Equal(t, want, SanitizeSite(in), in)
	}
}

func TestObserveNoticeFetchAndSkips(t *testing.T) {
	Init()

	before := testutil.ToFloat64(noticesFetchTotal.WithLabelValues("sheets.example", OutcomeFallback))
	ObserveNoticeFetch("https://sheets.example/export", OutcomeFallback, 20*time.Millisecond)
	require.InDelta(t, before+1, testutil.ToFloat64(noticesFetchTotal.WithLabelValues("sheets.example", OutcomeFallback)), 0)

	skipped := testutil.ToFloat64(noticesRowsSkippedTotal)
	ObserveNoticeRowSkipped()
	ObserveNoticeRowSkipped()
	require.InDelta(t, skipped+2, testutil.ToFloat64(noticesRowsSkippedTotal), 0)
}

func TestObserveStatusCheckAndEvents(t *testing.T) {
	Init()

	created := testutil.ToFloat64(statusChecksCreatedTotal.WithLabelValues("ok"))
	ObserveStatusCheckCreated("ok")
	require.InDelta(t, created+1, testutil.ToFloat64(statusChecksCreatedTotal.WithLabelValues("ok")), 0)

	failed := testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("error"))
	ObserveEventPublished("error")
	require.InDelta(t, failed+1, testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("error")), 0)
}
