// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Monetary_SVAR_Project/internal/fred"
	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/metrics"
	"Monetary_SVAR_Project/internal/series"
	"Monetary_SVAR_Project/internal/snapshot"
)

var (
	ids   = []string{"GDP", "GDPDEF", "CPIAUCSL", "CNP16OV", "FEDFUNDS"}
	start = time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)
)

func mustSeries(id string, n int) series.Series {
	dates := make([]time.Time, n)
	values := make([]float64, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 3*i, 0)
		values[i] = 100 + float64(i)
	}
	s, err := series.New(id, dates, values)
	if err != nil {
		panic(err)
	}
	return s
}

// fakeSession records whether it was closed and fails on FailOn.
type fakeSession struct {
	FailOn  string
	closed  bool
	fetched []string
}

func (s *fakeSession) Fetch(ctx context.Context, id string, start, end time.Time) (series.Series, error) {
	if s.closed {
		return series.Series{}, errors.New("fetch on closed session")
	}
	s.fetched = append(s.fetched, id)
	if id == s.FailOn {
		return series.Series{}, fmt.Errorf("%w: %s: connection reset", fred.ErrSourceUnavailable, id)
	}
	return mustSeries(id, 8), nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func openerFor(s *fakeSession) Opener {
	return OpenerFunc(func(ctx context.Context) (Session, error) { return s, nil })
}

// memStore is an in-memory snapshot.Store.
type memStore struct {
	snap  *snapshot.Snapshot
	saves int
}

func (m *memStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	m.snap = snap
	m.saves++
	return nil
}

func (m *memStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if m.snap == nil {
		return nil, snapshot.ErrSnapshotMissing
	}
	return m.snap, nil
}

func storedSnapshot(start, end time.Time) *memStore {
	snap := &snapshot.Snapshot{Start: start, End: end, Series: map[string]series.Series{}}
	for _, id := range ids {
		snap.Series[id] = mustSeries(id, 4)
	}
	return &memStore{snap: snap}
}

func TestAcquireLiveSuccess(t *testing.T) {
	sess := &fakeSession{}
	store := &memStore{}
	a := &Acquirer{Source: openerFor(sess), Store: store, Log: logger.Nop(), Metrics: metrics.New()}

	res, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end, Refresh: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.FromSnapshot {
		t.Errorf("live result flagged as snapshot")
	}
	if len(res.Series) != len(ids) {
		t.Errorf("got %d series, want %d", len(res.Series), len(ids))
	}
	if !sess.closed {
		t.Errorf("session left open after successful acquisition")
	}
	if store.saves != 1 || !store.snap.Covers(start, end) {
		t.Errorf("snapshot not refreshed: saves=%d", store.saves)
	}
}

func TestAcquireNoRefresh(t *testing.T) {
	store := &memStore{}
	a := &Acquirer{Source: openerFor(&fakeSession{}), Store: store}
	if _, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if store.saves != 0 {
		t.Errorf("snapshot saved without refresh")
	}
}

func TestAcquireFallsBackAndClosesSession(t *testing.T) {
	sess := &fakeSession{FailOn: "CPIAUCSL"}
	store := storedSnapshot(start, end)
	var buf bytes.Buffer
	a := &Acquirer{Source: openerFor(sess), Store: store, Log: logger.NewWithWriter(&buf)}

	res, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end, Refresh: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !res.FromSnapshot {
		t.Errorf("expected snapshot result")
	}
	if !sess.closed {
		t.Errorf("session left open after failed acquisition")
	}
	// the whole attempt fails on the first error
	if got := len(sess.fetched); got != 3 {
		t.Errorf("fetched %d series before giving up, want 3", got)
	}
	if store.saves != 0 {
		t.Errorf("fallback run must not overwrite the snapshot")
	}
	if !strings.Contains(buf.String(), "falling back to snapshot") {
		t.Errorf("fallback not logged:\n%s", buf.String())
	}
}

func TestAcquireOpenFailure(t *testing.T) {
	opener := OpenerFunc(func(ctx context.Context) (Session, error) {
		return nil, fmt.Errorf("%w: api key not configured", fred.ErrSourceUnavailable)
	})
	a := &Acquirer{Source: opener, Store: storedSnapshot(start, end)}
	res, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !res.FromSnapshot {
		t.Errorf("expected snapshot result")
	}
}

func TestAcquireNoSnapshot(t *testing.T) {
	sess := &fakeSession{FailOn: "GDP"}
	a := &Acquirer{Source: openerFor(sess), Store: &memStore{}}
	_, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end})
	if !errors.Is(err, snapshot.ErrSnapshotMissing) {
		t.Fatalf("got %v, want ErrSnapshotMissing", err)
	}
	if !sess.closed {
		t.Errorf("session left open")
	}
}

func TestAcquireSnapshotMissingSeries(t *testing.T) {
	store := storedSnapshot(start, end)
	delete(store.snap.Series, "FEDFUNDS")
	a := &Acquirer{Store: store}
	_, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end, Offline: true})
	if !errors.Is(err, snapshot.ErrSnapshotMissing) {
		t.Errorf("got %v, want ErrSnapshotMissing", err)
	}
}

func TestAcquireSnapshotRangeMismatch(t *testing.T) {
	other := time.Date(2007, 10, 1, 0, 0, 0, 0, time.UTC)
	store := storedSnapshot(start, other)
	var buf bytes.Buffer
	a := &Acquirer{Store: store, Log: logger.NewWithWriter(&buf)}

	res, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end, Offline: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// loaded verbatim: the snapshot's own bounds come back
	if !res.End.Equal(other) {
		t.Errorf("End = %s, want %s", res.End, other)
	}
	if !strings.Contains(buf.String(), "snapshot range differs") {
		t.Errorf("range mismatch not logged:\n%s", buf.String())
	}
}

func TestAcquireAgainstFredAndFileStore(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"observations":[{"date":"1960-01-01","value":"1.0"},{"date":"1960-04-01","value":"2.0"}]}`)
	}))
	defer srv.Close()

	client := fred.NewClient(fred.Config{APIKey: "k", BaseURL: srv.URL, RequestsPerMinute: 60000}, nil)
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "snapshot.parquet"))
	a := &Acquirer{Source: FredOpener(client), Store: store}

	res, err := a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end, Refresh: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if res.FromSnapshot || calls != len(ids) {
		t.Fatalf("FromSnapshot=%v calls=%d", res.FromSnapshot, calls)
	}

	// the source goes away; the next run reads what the first one saved
	srv.Close()
	res, err = a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end})
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if !res.FromSnapshot || res.Series["GDP"].Len() != 2 {
		t.Errorf("snapshot result = %+v", res)
	}

	// no key at all also falls back
	a.Source = FredOpener(fred.NewClient(fred.Config{}, nil))
	if res, err = a.Acquire(context.Background(), Request{IDs: ids, Start: start, End: end}); err != nil || !res.FromSnapshot {
		t.Errorf("keyless run: %v", err)
	}
}
