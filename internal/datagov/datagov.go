// Package datagov talks to the data.gov.sg real-time APIs: the v2 weather
// readings (air temperature, relative humidity, rainfall) and the taxi
// availability feed.
package datagov

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"

	"github.com/SSTengNic/DL-Project/internal/backfill"
	"github.com/SSTengNic/DL-Project/internal/dataset"
	"github.com/SSTengNic/DL-Project/internal/fetch"
	"github.com/SSTengNic/DL-Project/internal/geo"
	"github.com/SSTengNic/DL-Project/internal/timeseries"
)

// Weather endpoints under the v2 real-time API base URL.
const (
	EndpointAirTemperature   = "/air-temperature"
	EndpointRelativeHumidity = "/relative-humidity"
	EndpointRainfall         = "/rainfall"
)

// Station identifiers used for the taxi availability pseudo-series.
const (
	TaxiStationTotal = "singapore"
	TaxiStationBox   = "box-area"
)

type readingsResponse struct {
	Data struct {
		Readings []struct {
			Timestamp string `json:"timestamp"`
			Data      []struct {
				StationID string  `json:"stationId"`
				Value     float64 `json:"value"`
			} `json:"data"`
		} `json:"readings"`
	} `json:"data"`
}

// ExtractStation filters one raw weather response down to the records of
// a single station. Malformed payloads and responses without the station
// yield an empty slice; absence of data is not an error here.
func ExtractStation(raw []byte, stationID string) []dataset.Record {
	var payload readingsResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	var records []dataset.Record
	for _, reading := range payload.Data.Readings {
		ts, err := timeseries.Parse(reading.Timestamp)
		if err != nil {
			continue
		}
		for _, item := range reading.Data {
			if item.StationID != stationID {
				continue
			}
			records = append(records, dataset.Record{
				Timestamp: ts,
				StationID: stationID,
				Value:     item.Value,
			})
		}
	}
	return records
}

// StationFetch builds the backfill fetch function for one weather
// endpoint and station: query the endpoint at the point's timestamp and
// keep only that station's readings.
func StationFetch(c *fetch.Client, endpoint, stationID string) backfill.FetchFunc {
	return func(ctx context.Context, point string) ([]dataset.Record, error) {
		params := url.Values{}
		params.Set("date", point)
		raw, err := c.Get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
		return ExtractStation(raw, stationID), nil
	}
}

type taxiResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			TaxiCount int `json:"taxi_count"`
		} `json:"properties"`
	} `json:"features"`
}

// ExtractTaxi reads the taxi availability feature for one query point and
// emits two records keyed by the queried timestamp: the island-wide taxi
// count and the count of taxis inside the box.
func ExtractTaxi(raw []byte, point string, box geo.Box) []dataset.Record {
	ts, err := timeseries.Parse(point)
	if err != nil {
		return nil
	}

	var payload taxiResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if len(payload.Features) == 0 {
		return nil
	}
	feature := payload.Features[0]

	inBox := 0
	for _, coord := range feature.Geometry.Coordinates {
		if len(coord) < 2 {
			continue
		}
		if box.Contains(coord[0], coord[1]) {
			inBox++
		}
	}

	return []dataset.Record{
		{Timestamp: ts, StationID: TaxiStationTotal, Value: float64(feature.Properties.TaxiCount)},
		{Timestamp: ts, StationID: TaxiStationBox, Value: float64(inBox)},
	}
}

// TaxiFetch builds the backfill fetch function for the taxi availability
// endpoint, which takes its timestamp via date_time.
func TaxiFetch(c *fetch.Client, box geo.Box) backfill.FetchFunc {
	return func(ctx context.Context, point string) ([]dataset.Record, error) {
		params := url.Values{}
		params.Set("date_time", point)
		raw, err := c.Get(ctx, "/transport/taxi-availability", params)
		if err != nil {
			return nil, err
		}
		return ExtractTaxi(raw, point, box), nil
	}
}

// TaxiRows folds the taxi pseudo-series back into CSV rows of
// DateTime, island-wide count, in-box count, newest first.
func TaxiRows(records []dataset.Record) [][]string {
	type counts struct {
		total float64
		box   float64
	}
	byTime := make(map[string]*counts)
	for _, r := range records {
		key := r.Timestamp.Format(timeseries.Layout)
		c, ok := byTime[key]
		if !ok {
			c = &counts{}
			byTime[key] = c
		}
		switch r.StationID {
		case TaxiStationTotal:
			c.total = r.Value
		case TaxiStationBox:
			c.box = r.Value
		}
	}

	keys := make([]string, 0, len(byTime))
	for k := range byTime {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		c := byTime[k]
		rows = append(rows, []string{k, dataset.FormatValue(c.total), dataset.FormatValue(c.box)})
	}
	return rows
}
