package ranking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
	"github.com/recruiterlab/rankdesk/internal/session"
)

type patchRecord struct {
	path   string
	jobID  string
	status string
}

func newTestReconciler(t *testing.T, respond func(w http.ResponseWriter)) (*Reconciler, *Cache, *[]patchRecord) {
	t.Helper()

	var calls []patchRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, patchRecord{
			path:   r.URL.Path,
			jobID:  r.URL.Query().Get("job_id"),
			status: r.URL.Query().Get("status"),
		})
		respond(w)
	}))
	t.Cleanup(srv.Close)

	sess := session.NewManager(filepath.Join(t.TempDir(), "session.json"), srv.URL, zap.NewNop())
	gw := gateway.New(srv.URL, sess, zap.NewNop())
	cache := NewCache()
	return NewReconciler(gw, cache, zap.NewNop()), cache, &calls
}

func ok(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

func TestSetStatusUpdatesOnlyStatusField(t *testing.T) {
	rec, cache, calls := newTestReconciler(t, ok)
	cache.Store(42, sampleSet("a@b.com", "c@d.com"))

	if err := rec.SetStatus(context.Background(), "a@b.com", 42, StatusSaved); err != nil {
		t.Fatalf("set status: %v", err)
	}

	set, _ := cache.Snapshot(42)
	row := set.FindByEmail("a@b.com")
	if row.Status != StatusSaved {
		t.Fatalf("status = %q, want saved", row.Status)
	}
	if row.OverallScore != 0.9 || row.BudgetFit != "Within budget" || row.Recommendation != "Strong match" {
		t.Fatal("scores and text fields must be unchanged")
	}

	if len(*calls) != 1 {
		t.Fatalf("expected 1 backend call, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.path != "/api/candidates/a@b.com/status" || call.jobID != "42" || call.status != "saved" {
		t.Fatalf("unexpected backend call: %+v", call)
	}
}

func TestSetStatusIsIdempotent(t *testing.T) {
	rec, cache, _ := newTestReconciler(t, ok)
	cache.Store(42, sampleSet("a@b.com"))

	if err := rec.SetStatus(context.Background(), "a@b.com", 42, StatusSaved); err != nil {
		t.Fatalf("first set: %v", err)
	}
	once, _ := cache.Snapshot(42)
	snapshot := once.Clone()

	if err := rec.SetStatus(context.Background(), "a@b.com", 42, StatusSaved); err != nil {
		t.Fatalf("second set: %v", err)
	}
	twice, _ := cache.Snapshot(42)

	if !reflect.DeepEqual(snapshot.Items, twice.Items) {
		t.Fatal("repeating the same status change must not alter the cache further")
	}
}

func TestSetStatusFullTransitionGraph(t *testing.T) {
	rec, cache, _ := newTestReconciler(t, ok)
	cache.Store(42, sampleSet("a@b.com"))

	original, _ := cache.Snapshot(42)
	want := original.Clone()

	// active → rejected → active: no forbidden edges, and the round trip
	// restores the row exactly.
	for _, status := range []Status{StatusRejected, StatusActive} {
		if err := rec.SetStatus(context.Background(), "a@b.com", 42, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	got, _ := cache.Snapshot(42)
	if !reflect.DeepEqual(want.Items, got.Items) {
		t.Fatal("round trip must restore the original row, non-status fields included")
	}
}

func TestSetStatusMissingRowStillCallsBackend(t *testing.T) {
	rec, cache, calls := newTestReconciler(t, ok)
	cache.Store(42, sampleSet("a@b.com"))

	if err := rec.SetStatus(context.Background(), "gone@x.com", 42, StatusRejected); err != nil {
		t.Fatalf("set status: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("backend must still be attempted, got %d calls", len(*calls))
	}

	set, _ := cache.Snapshot(42)
	if set.FindByEmail("a@b.com").Status != StatusActive {
		t.Fatal("unrelated rows must not change")
	}
}

func TestSetStatusBackendFailureKeepsOptimisticRow(t *testing.T) {
	rec, cache, _ := newTestReconciler(t, func(w http.ResponseWriter) {
		http.Error(w, `{"detail": "db down"}`, http.StatusInternalServerError)
	})
	cache.Store(42, sampleSet("a@b.com"))

	err := rec.SetStatus(context.Background(), "a@b.com", 42, StatusRejected)

	var failed *gateway.RequestFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected *RequestFailed, got %T: %v", err, err)
	}

	set, _ := cache.Snapshot(42)
	if set.FindByEmail("a@b.com").Status != StatusRejected {
		t.Fatal("the optimistic update must not be rolled back on failure")
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	rec, _, calls := newTestReconciler(t, ok)

	if err := rec.SetStatus(context.Background(), "a@b.com", 42, Status("archived")); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if len(*calls) != 0 {
		t.Fatal("an invalid status must never reach the backend")
	}
}
