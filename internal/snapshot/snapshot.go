// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package snapshot persists the raw input series so a run can proceed when
// the live source is down. Snapshots are single parquet files.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"Monetary_SVAR_Project/internal/series"
)

// ErrSnapshotMissing means no usable snapshot exists at the store location.
var ErrSnapshotMissing = errors.New("snapshot: no snapshot available")

// Snapshot is the persisted bundle: every raw series plus the date range it
// was requested for.
type Snapshot struct {
	Start   time.Time
	End     time.Time
	Series  map[string]series.Series
	SavedAt time.Time
}

// Store saves and loads one snapshot.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// record is one observation row in the parquet file.
type record struct {
	SeriesID   string  `parquet:"name=series_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date       int32   `parquet:"name=date, type=INT32, convertedtype=DATE"`
	Value      float64 `parquet:"name=value, type=DOUBLE"`
	RangeStart int32   `parquet:"name=range_start, type=INT32, convertedtype=DATE"`
	RangeEnd   int32   `parquet:"name=range_end, type=INT32, convertedtype=DATE"`
	SavedAt    int64   `parquet:"name=saved_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

const secondsPerDay = 24 * 60 * 60

func toDays(t time.Time) int32 {
	return int32(t.UTC().Truncate(24*time.Hour).Unix() / secondsPerDay)
}

func fromDays(d int32) time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// IDs returns the series ids in sorted order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Series))
	for id := range s.Series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Covers reports whether the snapshot was taken for exactly [start, end].
func (s *Snapshot) Covers(start, end time.Time) bool {
	return toDays(s.Start) == toDays(start) && toDays(s.End) == toDays(end)
}

// Encode serializes snap as snappy-compressed parquet.
func Encode(snap *Snapshot) ([]byte, error) {
	if snap == nil || len(snap.Series) == 0 {
		return nil, fmt.Errorf("snapshot: nothing to encode")
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	pw, err := writer.NewParquetWriterFromWriter(&buf, new(record), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, id := range snap.IDs() {
		for _, o := range snap.Series[id].Obs {
			rec := record{
				SeriesID:   id,
				Date:       toDays(o.Date),
				Value:      o.Value,
				RangeStart: toDays(snap.Start),
				RangeEnd:   toDays(snap.End),
				SavedAt:    savedAt.UnixMilli(),
			}
			if err := pw.Write(rec); err != nil {
				pw.WriteStop()
				return nil, fmt.Errorf("write parquet record: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a parquet snapshot. A file without rows is ErrSnapshotMissing.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrSnapshotMissing
	}
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, fmt.Errorf("open parquet buffer: %w", err)
	}
	pr, err := reader.NewParquetReader(pf, new(record), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n == 0 {
		return nil, ErrSnapshotMissing
	}
	rows := make([]record, n)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}

	snap := &Snapshot{
		Start:   fromDays(rows[0].RangeStart),
		End:     fromDays(rows[0].RangeEnd),
		SavedAt: time.UnixMilli(rows[0].SavedAt).UTC(),
		Series:  make(map[string]series.Series),
	}

	grouped := make(map[string][]series.Observation)
	for _, r := range rows {
		grouped[r.SeriesID] = append(grouped[r.SeriesID], series.Observation{Date: fromDays(r.Date), Value: r.Value})
	}
	for id, obs := range grouped {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
		s := series.Series{ID: id, Obs: obs}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("snapshot series %s: %w", id, err)
		}
		snap.Series[id] = s
	}
	return snap, nil
}
