// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package acquire gets the raw input series: live from the source when it
// answers, from the persisted snapshot otherwise.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Monetary_SVAR_Project/internal/fred"
	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/series"
	"Monetary_SVAR_Project/internal/snapshot"
)

// Session fetches series over one open connection scope.
type Session interface {
	Fetch(ctx context.Context, id string, start, end time.Time) (series.Series, error)
	Close() error
}

// Opener starts sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// FredOpener opens sessions on a FRED client.
func FredOpener(c *fred.Client) Opener {
	return OpenerFunc(func(ctx context.Context) (Session, error) {
		s, err := c.Open(ctx)
		if err != nil {
			// keep a nil *fred.Session out of the interface
			return nil, err
		}
		return s, nil
	})
}

// Metrics is what Acquire reports to.
type Metrics interface {
	RecordFetchAttempt()
	RecordFetchFailure()
	RecordSnapshotFallback()
	RecordObservations(series string, n int)
}

type Request struct {
	IDs   []string
	Start time.Time
	End   time.Time
	// Refresh saves a new snapshot after a successful live fetch
	Refresh bool
	// Offline skips the live source
	Offline bool
}

type Result struct {
	Series       map[string]series.Series
	Start        time.Time
	End          time.Time
	FromSnapshot bool
}

type Acquirer struct {
	Source  Opener
	Store   snapshot.Store
	Log     *logger.Logger
	Metrics Metrics
}

// Acquire tries the live source first. Any live failure downgrades to the
// snapshot; a missing snapshot then ends the run with ErrSnapshotMissing.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (*Result, error) {
	log := a.Log
	if log == nil {
		log = logger.Nop()
	}
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("acquire: no series requested")
	}

	var liveErr error
	if req.Offline || a.Source == nil {
		liveErr = errors.New("live source disabled")
		log.Info("skipping live fetch", logger.Bool("offline", req.Offline))
	} else {
		a.recordAttempt()
		got, err := a.fetchLive(ctx, req)
		if err == nil {
			res := &Result{Series: got, Start: req.Start, End: req.End}
			a.recordObservations(res.Series)
			log.Info("fetched live series", logger.Int("series", len(got)))
			if req.Refresh {
				a.refresh(ctx, log, res)
			}
			return res, nil
		}
		liveErr = err
		a.recordFailure()
		log.Warn("live fetch failed, falling back to snapshot", logger.Error(err))
	}

	if a.Store == nil {
		return nil, fmt.Errorf("%w: no snapshot store configured (live fetch: %v)", snapshot.ErrSnapshotMissing, liveErr)
	}
	snap, err := a.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w (live fetch: %v)", err, liveErr)
	}
	for _, id := range req.IDs {
		if _, ok := snap.Series[id]; !ok {
			return nil, fmt.Errorf("%w: series %s not in snapshot", snapshot.ErrSnapshotMissing, id)
		}
	}
	if !snap.Covers(req.Start, req.End) {
		log.Warn("snapshot range differs from requested range, using snapshot as is",
			logger.Date("snapshot_start", snap.Start),
			logger.Date("snapshot_end", snap.End),
			logger.Date("requested_start", req.Start),
			logger.Date("requested_end", req.End),
		)
	}
	if a.Metrics != nil {
		a.Metrics.RecordSnapshotFallback()
	}

	res := &Result{Series: make(map[string]series.Series, len(req.IDs)), Start: snap.Start, End: snap.End, FromSnapshot: true}
	for _, id := range req.IDs {
		res.Series[id] = snap.Series[id]
	}
	a.recordObservations(res.Series)
	log.Info("loaded snapshot", logger.Int("series", len(res.Series)), logger.Any("saved_at", snap.SavedAt))
	return res, nil
}

// fetchLive pulls every requested series in one session. The session is
// closed on every return path.
func (a *Acquirer) fetchLive(ctx context.Context, req Request) (map[string]series.Series, error) {
	sess, err := a.Source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", fred.ErrSourceUnavailable, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && a.Log != nil {
			a.Log.Warn("closing source session", logger.Error(cerr))
		}
	}()

	out := make(map[string]series.Series, len(req.IDs))
	for _, id := range req.IDs {
		s, err := sess.Fetch(ctx, id, req.Start, req.End)
		if err != nil {
			if errors.Is(err, fred.ErrSourceUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %v", fred.ErrSourceUnavailable, id, err)
		}
		out[id] = s
	}
	return out, nil
}

func (a *Acquirer) refresh(ctx context.Context, log *logger.Logger, res *Result) {
	if a.Store == nil {
		return
	}
	snap := &snapshot.Snapshot{
		Start:   res.Start,
		End:     res.End,
		Series:  res.Series,
		SavedAt: time.Now().UTC(),
	}
	if err := a.Store.Save(ctx, snap); err != nil {
		log.Warn("saving snapshot failed", logger.Error(err))
		return
	}
	log.Info("snapshot refreshed", logger.String("store", fmt.Sprint(a.Store)))
}

func (a *Acquirer) recordAttempt() {
	if a.Metrics != nil {
		a.Metrics.RecordFetchAttempt()
	}
}

func (a *Acquirer) recordFailure() {
	if a.Metrics != nil {
		a.Metrics.RecordFetchFailure()
	}
}

func (a *Acquirer) recordObservations(got map[string]series.Series) {
	if a.Metrics == nil {
		return
	}
	for id, s := range got {
		a.Metrics.RecordObservations(id, s.Len())
	}
}
