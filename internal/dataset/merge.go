package dataset

import (
	"sort"
	"time"

	"github.com/SSTengNic/DL-Project/internal/timeseries"
)

// MergedRow is one time-aligned observation across measurement types.
// Values maps a series name to its bound value; a missing key means no
// record of that measurement fell within tolerance.
type MergedRow struct {
	Timestamp time.Time
	StationID string
	Values    map[string]float64
}

// MergeNearest aligns measurement series by nearest timestamp. The first
// series anchors the join: every distinct (timestamp, station) of the
// anchor produces a row, and each later series contributes the record
// closest in time for the same station, provided it is within tolerance
// and no two candidates tie in distance. Later-series records bound to no
// anchor row are emitted as their own rows so no observation is dropped.
// Rows are returned sorted by timestamp descending.
func MergeNearest(series []Series, tolerance time.Duration) []MergedRow {
	if len(series) == 0 {
		return nil
	}

	anchor := sortedCopy(series[0])

	type rowKey struct {
		ts      int64
		station string
	}

	var rows []MergedRow
	seen := make(map[rowKey]struct{}, len(anchor.Records))
	for _, r := range anchor.Records {
		k := rowKey{r.Timestamp.UnixNano(), r.StationID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, MergedRow{
			Timestamp: r.Timestamp,
			StationID: r.StationID,
			Values:    map[string]float64{anchor.Name: r.Value},
		})
	}

	leftover := make(map[rowKey]*MergedRow)

	for _, raw := range series[1:] {
		s := sortedCopy(raw)

		// Group record indices by station; records stay time-ordered.
		byStation := make(map[string][]int)
		for i, r := range s.Records {
			byStation[r.StationID] = append(byStation[r.StationID], i)
		}

		matched := make([]bool, len(s.Records))

		for i := range rows {
			idxs := byStation[rows[i].StationID]
			if len(idxs) == 0 {
				continue
			}
			j, ok := nearestWithin(s.Records, idxs, rows[i].Timestamp, tolerance)
			if !ok {
				continue
			}
			rows[i].Values[s.Name] = s.Records[j].Value
			matched[j] = true
		}

		for i, r := range s.Records {
			if matched[i] {
				continue
			}
			k := rowKey{r.Timestamp.UnixNano(), r.StationID}
			row, ok := leftover[k]
			if !ok {
				row = &MergedRow{
					Timestamp: r.Timestamp,
					StationID: r.StationID,
					Values:    make(map[string]float64),
				}
				leftover[k] = row
			}
			if _, exists := row.Values[s.Name]; !exists {
				row.Values[s.Name] = r.Value
			}
		}
	}

	for _, row := range leftover {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.After(rows[j].Timestamp)
		}
		return rows[i].StationID < rows[j].StationID
	})

	return rows
}

// RowsForColumns renders merged rows as CSV rows with one column per
// series name, in the given order. Unbound values render empty.
func RowsForColumns(rows []MergedRow, names []string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(names)+2)
		cells = append(cells, row.Timestamp.Format(timeseries.Layout), row.StationID)
		for _, name := range names {
			if v, ok := row.Values[name]; ok {
				cells = append(cells, FormatValue(v))
			} else {
				cells = append(cells, "")
			}
		}
		out = append(out, cells)
	}
	return out
}

func sortedCopy(s Series) Series {
	records := make([]Record, len(s.Records))
	copy(records, s.Records)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return Series{Name: s.Name, Records: records}
}

// nearestWithin finds the record among idxs (time-ordered indices into
// records for one station) closest to t. It reports no match when the
// closest distance exceeds tolerance or when two candidates tie exactly.
func nearestWithin(records []Record, idxs []int, t time.Time, tolerance time.Duration) (int, bool) {
	pos := sort.Search(len(idxs), func(i int) bool {
		return !records[idxs[i]].Timestamp.Before(t)
	})

	best := -1
	var bestD time.Duration
	tie := false
	for _, p := range []int{pos - 1, pos} {
		if p < 0 || p >= len(idxs) {
			continue
		}
		d := absDuration(records[idxs[p]].Timestamp.Sub(t))
		switch {
		case best == -1 || d < bestD:
			best, bestD, tie = p, d, false
		case d == bestD:
			tie = true
		}
	}
	if best == -1 || tie || bestD > tolerance {
		return 0, false
	}

	// Equal timestamps next to the chosen candidate tie as well.
	for _, p := range []int{best - 1, best + 1} {
		if p < 0 || p >= len(idxs) || p == pos-1 || p == pos {
			continue
		}
		if absDuration(records[idxs[p]].Timestamp.Sub(t)) == bestD {
			return 0, false
		}
	}

	return idxs[best], true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
