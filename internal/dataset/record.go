package dataset

import (
	"strconv"
	"time"

	"github.com/SSTengNic/DL-Project/internal/timeseries"
)

// Record is one scalar observation for one station at one point in time.
type Record struct {
	Timestamp time.Time
	StationID string
	Value     float64
}

// Series is a named stream of records for one measurement type
// (e.g. air temperature, relative humidity, rainfall).
type Series struct {
	Name    string
	Records []Record
}

// Rows renders the series as CSV rows: timestamp,stationId,value.
func (s Series) Rows() [][]string {
	rows := make([][]string, 0, len(s.Records))
	for _, r := range s.Records {
		rows = append(rows, []string{
			r.Timestamp.Format(timeseries.Layout),
			r.StationID,
			FormatValue(r.Value),
		})
	}
	return rows
}

// FormatValue renders a measurement value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
