package notices

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	collyfetcher "github.com/JakeFAU/school-portal-api/internal/fetcher/colly"
	"github.com/JakeFAU/school-portal-api/internal/school"
)

type fakeFetcher struct {
	resp     school.FetchResponse
	err      error
	urls     []string
	requests []school.FetchRequest
}

func (f *fakeFetcher) Fetch(_ context.Context, req school.FetchRequest) (school.FetchResponse, error) {
	f.urls = append(f.urls, req.URL)
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func TestSourceFetchLive(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{resp: school.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte("Notice Title,Date,Description\nX,2025-02-01,Y\n"),
	}}
	src := NewSource(fetcher, SourceConfig{URL: "https://sheets.example/export?format=csv"}, nil)

	res := src.Fetch(context.Background())
	require.NoError(t, res.Err)
	require.Equal(t, []school.Notice{{Title: "X", Date: "2025-02-01", Description: "Y"}}, res.Notices)
	require.Equal(t, []string{"https://sheets.example/export?format=csv"}, fetcher.urls)
	require.Equal(t, res.Notices, src.Notices(context.Background()))
}

func TestSourceRequestsCSVAndLogsUpstream(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	fetcher := &fakeFetcher{resp: school.FetchResponse{
		URL:        "https://sheets.example/final.csv",
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": {"text/csv"}},
		Body:       []byte("Notice Title,Date\nX,2025-02-01\n"),
		Duration:   42 * time.Millisecond,
	}}
	src := NewSource(fetcher, SourceConfig{URL: "https://sheets.example/export?format=csv"}, zap.New(core))

	require.Len(t, src.Notices(context.Background()), 1)
	require.Len(t, fetcher.requests, 1)
	require.Equal(t, "text/csv", fetcher.requests[0].Headers.Get("Accept"))

	fetched := logs.FilterMessage("notice sheet fetched").All()
	require.Len(t, fetched, 1)
	fields := fetched[0].ContextMap()
	require.Equal(t, "https://sheets.example/final.csv", fields["final_url"])
	require.Equal(t, "text/csv", fields["content_type"])
	require.Equal(t, 42*time.Millisecond, fields["upstream_duration"])
}

func TestSourceFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fetcher *fakeFetcher
		wantErr error
	}{
		{
			name:    "transport error",
			fetcher: &fakeFetcher{err: errors.New("dial tcp: connection refused")},
		},
		{
			name:    "non-2xx status",
			fetcher: &fakeFetcher{resp: school.FetchResponse{StatusCode: http.StatusNotFound}},
			wantErr: ErrUpstreamStatus,
		},
		{
			name:    "redirect status",
			fetcher: &fakeFetcher{resp: school.FetchResponse{StatusCode: http.StatusTemporaryRedirect}},
			wantErr: ErrUpstreamStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.ErrorLevel)
			src := NewSource(tt.fetcher, SourceConfig{URL: "https://sheets.example"}, zap.New(core))

			res := src.Fetch(context.Background())
			require.Error(t, res.Err)
			require.Nil(t, res.Notices)
			if tt.wantErr != nil {
				require.ErrorIs(t, res.Err, tt.wantErr)
			}

			require.Equal(t, Fallback(), src.Notices(context.Background()))
			require.Equal(t, 1, logs.FilterMessage("notices unavailable, serving fallback").Len())
		})
	}
}

func TestSourceHeaderOnlyIsNotAFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{resp: school.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte("Notice Title,Date,Description\n"),
	}}
	got := NewSource(fetcher, SourceConfig{URL: "https://sheets.example"}, nil).Notices(context.Background())
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSourceLogsSkippedRows(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	fetcher := &fakeFetcher{resp: school.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte("Notice Title,Date\n,2025-01-01\nA,2025-01-02\n"),
	}}
	got := NewSource(fetcher, SourceConfig{URL: "https://sheets.example"}, zap.New(core)).Notices(context.Background())

	require.Len(t, got, 1)
	skipped := logs.FilterMessage("skipping notice row without title or date").All()
	require.Len(t, skipped, 1)
	require.Equal(t, int64(2), skipped[0].ContextMap()["line"])
}

func TestSourceDefaultLimit(t *testing.T) {
	t.Parallel()

	body := "Notice Title,Date\n"
	for range 12 {
		body += "A,2025-01-01\n"
	}
	fetcher := &fakeFetcher{resp: school.FetchResponse{StatusCode: http.StatusOK, Body: []byte(body)}}
	require.Len(t, NewSource(fetcher, SourceConfig{}, nil).Notices(context.Background()), DefaultLimit)
}

func TestSourceWithCollyFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "csv" {
			http.Error(w, "bad format", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("Notice Title,Date,Description,Link\r\nOpen House,2025-02-10,,https://school.example/open\r\n"))
	}))
	t.Cleanup(srv.Close)

	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: 2 * time.Second})

	live := NewSource(fetcher, SourceConfig{URL: srv.URL + "/export?format=csv"}, nil)
	require.Equal(t, []school.Notice{{
		Title:       "Open House",
		Date:        "2025-02-10",
		Description: "https://school.example/open",
	}}, live.Notices(context.Background()))

	broken := NewSource(fetcher, SourceConfig{URL: srv.URL + "/export"}, nil)
	require.Equal(t, Fallback(), broken.Notices(context.Background()))
}
