package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thesavant42/wayback-tweets/internal/models"
)

// recordingDiagnostics captures every notice for assertions
type recordingDiagnostics struct {
	mu      sync.Mutex
	entries []string
	errors  int
}

func (r *recordingDiagnostics) Report(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, level.String()+": "+msg)
	if level == LevelError {
		r.errors++
	}
}

func parseQuery(t *testing.T, query string) url.Values {
	t.Helper()
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", query, err)
	}
	return values
}

// TestBuildTweetsQueryDefaults verifies only url and output are sent when nothing optional is set
func TestBuildTweetsQueryDefaults(t *testing.T) {
	query := BuildTweetsQuery(DefaultService, models.QueryParameters{Username: "alice"})
	values := parseQuery(t, query)

	if len(values) != 2 {
		t.Errorf("BuildTweetsQuery() keys = %v, want only url and output", values)
	}
	if got := values.Get("url"); got != "https://twitter.com/alice/status/*" {
		t.Errorf("url = %q, want %q", got, "https://twitter.com/alice/status/*")
	}
	if got := values.Get("output"); got != "json" {
		t.Errorf("output = %q, want json", got)
	}

	// The asterisk should NOT be encoded as %2A
	if strings.Contains(query, "%2A") || strings.Contains(query, "%2a") {
		t.Errorf("BuildTweetsQuery() asterisk is encoded: %q", query)
	}
}

// TestBuildTweetsQueryOptionalFields checks each optional field independently
func TestBuildTweetsQueryOptionalFields(t *testing.T) {
	tests := []struct {
		name   string
		params models.QueryParameters
		key    string
		want   string
	}{
		{"collapse", models.QueryParameters{Username: "alice", Collapse: "urlkey"}, "collapse", "urlkey"},
		{"from", models.QueryParameters{Username: "alice", From: "20150101"}, "from", "20150101"},
		{"to", models.QueryParameters{Username: "alice", To: "20191231235959"}, "to", "20191231235959"},
		{"limit", models.QueryParameters{Username: "alice", Limit: 50}, "limit", "50"},
		{"negative limit", models.QueryParameters{Username: "alice", Limit: -5}, "limit", "-5"},
		{"offset", models.QueryParameters{Username: "alice", Offset: 100}, "offset", "100"},
		{"collapse with filter syntax", models.QueryParameters{Username: "alice", Collapse: "timestamp:8"}, "collapse", "timestamp:8"},
	}

	optional := []string{"collapse", "from", "to", "limit", "offset"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := parseQuery(t, BuildTweetsQuery(DefaultService, tt.params))

			if got := values.Get(tt.key); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
			for _, other := range optional {
				if other == tt.key {
					continue
				}
				if values.Has(other) {
					t.Errorf("unexpected key %q in query %v", other, values)
				}
			}
		})
	}
}

func TestBuildTweetsQueryAllFields(t *testing.T) {
	params := models.QueryParameters{
		Username: "alice",
		Collapse: "urlkey",
		From:     "2015",
		To:       "2020",
		Limit:    10,
		Offset:   20,
	}
	query := BuildTweetsQuery("x.com", params)

	want := "url=https%3A%2F%2Fx.com%2Falice%2Fstatus%2F*&output=json&collapse=urlkey&from=2015&to=2020&limit=10&offset=20"
	if query != want {
		t.Errorf("BuildTweetsQuery() = %q, want %q", query, want)
	}
}

func TestFetchTweetsSuccess(t *testing.T) {
	body := `[["urlkey","timestamp","original","mimetype","statuscode","digest","length"],` +
		`["com,twitter)/alice/status/1","20200101000000","https://twitter.com/alice/status/1","text/html","200","ABC","1234"]]`

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	diag := &recordingDiagnostics{}
	client := NewWaybackClient(nil, WithEndpoint(server.URL), WithDiagnostics(diag))

	rows := client.FetchTweets(context.Background(), models.QueryParameters{Username: "alice", Limit: 5})
	if rows == nil {
		t.Fatalf("FetchTweets() = nil, diagnostics: %v", diag.entries)
	}
	if len(rows) != 2 {
		t.Fatalf("FetchTweets() returned %d rows, want 2 (header kept)", len(rows))
	}
	if rows.Header()[0] != "urlkey" {
		t.Errorf("header row = %v, want urlkey first", rows.Header())
	}
	if rows[1][2] != "https://twitter.com/alice/status/1" {
		t.Errorf("data row = %v", rows[1])
	}
	if !strings.Contains(gotQuery, "limit=5") {
		t.Errorf("server saw query %q, want limit=5", gotQuery)
	}
	if len(diag.entries) != 0 {
		t.Errorf("unexpected diagnostics on success: %v", diag.entries)
	}
}

func TestFetchTweetsGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`[["urlkey"],["com,twitter)/alice/status/1"]]`))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	// DisableCompression keeps the transport from decoding gzip itself
	hc := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	client := NewWaybackClient(nil, WithHTTPClient(hc), WithEndpoint(server.URL))

	rows := client.FetchTweets(context.Background(), models.QueryParameters{Username: "alice"})
	if len(rows) != 2 {
		t.Fatalf("FetchTweets() rows = %v, want 2", rows)
	}
}

func TestFetchTweetsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewWaybackClient(nil, WithEndpoint(server.URL))
	rows := client.FetchTweets(context.Background(), models.QueryParameters{Username: "nobody"})
	if rows == nil || len(rows) != 0 {
		t.Errorf("FetchTweets() = %#v, want empty non-nil rows", rows)
	}
}

// TestFetchTweetsFailures checks every handled failure yields nil and one error notice
func TestFetchTweetsFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) (endpoint string, opts []Option)
		kind    Failure
		message string
	}{
		{
			name: "timeout",
			setup: func(t *testing.T) (string, []Option) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-r.Context().Done():
					case <-time.After(2 * time.Second):
					}
				}))
				t.Cleanup(server.Close)
				return server.URL, []Option{WithTimeout(50 * time.Millisecond)}
			},
			kind:    FailureTimeout,
			message: "timed out",
		},
		{
			name: "connection refused",
			setup: func(t *testing.T) (string, []Option) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				endpoint := server.URL
				server.Close()
				return endpoint, nil
			},
			kind:    FailureConnection,
			message: "Failed to establish a new connection",
		},
		{
			name: "service unavailable",
			setup: func(t *testing.T) (string, []Option) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "offline", http.StatusServiceUnavailable)
				}))
				t.Cleanup(server.Close)
				return server.URL, nil
			},
			kind:    FailureHTTP,
			message: "Temporarily Offline",
		},
		{
			name: "malformed json",
			setup: func(t *testing.T) (string, []Option) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `{"not":"rows"}`)
				}))
				t.Cleanup(server.Close)
				return server.URL, nil
			},
			kind:    FailureUnclassified,
			message: "failed to parse JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, opts := tt.setup(t)
			diag := &recordingDiagnostics{}
			opts = append(opts, WithEndpoint(endpoint), WithDiagnostics(diag))
			client := NewWaybackClient(nil, opts...)

			rows := client.FetchTweets(context.Background(), models.QueryParameters{Username: "alice"})
			if rows != nil {
				t.Errorf("FetchTweets() = %v, want nil", rows)
			}
			if len(diag.entries) != 1 || diag.errors != 1 {
				t.Fatalf("want exactly one error diagnostic, got %v", diag.entries)
			}
			if !strings.Contains(diag.entries[0], tt.message) {
				t.Errorf("diagnostic %q does not mention %q", diag.entries[0], tt.message)
			}

			_, err := client.fetchTweets(context.Background(), models.QueryParameters{Username: "alice"})
			if got := ClassifyFailure(err); got != tt.kind {
				t.Errorf("ClassifyFailure(%v) = %v, want %v", err, got, tt.kind)
			}
		})
	}
}

func TestClassifyFailureStatusError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 429})
	if got := ClassifyFailure(err); got != FailureHTTP {
		t.Errorf("ClassifyFailure() = %v, want http", got)
	}
	if got := ClassifyFailure(fmt.Errorf("boom")); got != FailureUnclassified {
		t.Errorf("ClassifyFailure() = %v, want unclassified", got)
	}
}

func TestRequestURL(t *testing.T) {
	client := NewWaybackClient(nil, WithService("x.com"))
	got := client.RequestURL(models.QueryParameters{Username: "bob"})
	want := DefaultCDXEndpoint + "?url=https%3A%2F%2Fx.com%2Fbob%2Fstatus%2F*&output=json"
	if got != want {
		t.Errorf("RequestURL() = %q, want %q", got, want)
	}
}

// TestFetchTweetsIntegration is an integration test that actually calls the API
// Run with: go test -v -run TestFetchTweetsIntegration ./internal/api/
func TestFetchTweetsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	diag := &recordingDiagnostics{}
	client := NewWaybackClient(nil, WithDiagnostics(diag))
	rows := client.FetchTweets(context.Background(), models.QueryParameters{Username: "jack", Limit: 5})
	if rows == nil {
		t.Skipf("archive unavailable: %v", diag.entries)
	}

	t.Logf("Fetched %d rows for jack", len(rows))
	for i, r := range rows.DataRows() {
		t.Logf("  %d: %v", i, r)
	}
}
