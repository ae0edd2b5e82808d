package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                        "/",
		"/metrics":                                "/metrics",
		"/user-dashboard":                         "/user-dashboard",
		"/user-dashboard?tab=apply":               "/user-dashboard",
		"/user-dashboard/notifications/n-1":       "/user-dashboard/notifications/:id",
		"/user-dashboard/notifications/n-1/read":  "/user-dashboard/notifications/:id/read",
		"/user-dashboard/notifications/n-1/extra": "/user-dashboard/notifications/n-1/extra",
		"/employee-dashboard/users/42/deactivate": "/employee-dashboard/users/:id/deactivate",
		"/employee-dashboard/users":               "/employee-dashboard/users",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentCountsCanonicalPath(t *testing.T) {
	Init()
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/user-dashboard/notifications/:id", "204"))
	req := httptest.NewRequest(http.MethodDelete, "/user-dashboard/notifications/abc", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/user-dashboard/notifications/:id", "204"))

	if after-before != 1 {
		t.Fatalf("expected one counted request, got %v", after-before)
	}
}

func TestObserveUpstreamLabelsTransportFailures(t *testing.T) {
	Init()
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues(http.MethodGet, "/accounts", "error"))
	ObserveUpstream(http.MethodGet, "/accounts", 0, time.Millisecond)
	after := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues(http.MethodGet, "/accounts", "error"))
	if after-before != 1 {
		t.Fatalf("expected error label to be incremented")
	}
}

func TestSetReady(t *testing.T) {
	SetReady(true)
	if got := testutil.ToFloat64(readyGauge); got != 1 {
		t.Fatalf("ready gauge = %v, want 1", got)
	}
	SetReady(false)
	if got := testutil.ToFloat64(readyGauge); got != 0 {
		t.Fatalf("ready gauge = %v, want 0", got)
	}
}
