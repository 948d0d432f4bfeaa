package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(errors.New("boom"))
	m.ObserveSheet()
	m.ObserveMessage(chat.ModeNarrative)

	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("error")); got != 1 {
		t.Errorf("error evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sheets); got != 1 {
		t.Errorf("sheets = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.messages.WithLabelValues("narrative-pool")); got != 1 {
		t.Errorf("messages = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation(nil)
	m.ObserveSheet()
	m.ObserveMessage(chat.ModeAdditive)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSheet()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "webrpg_sheets_computed_total 1") {
		t.Errorf("metrics output missing sheet counter:\n%s", body)
	}
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.ObserveSheet()
	if err := m.Push(srv.URL); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotPath != "/metrics/job/"+JobName {
		t.Errorf("push path = %q", gotPath)
	}
}
