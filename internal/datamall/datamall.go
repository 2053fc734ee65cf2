// Package datamall talks to the LTA DataMall OData service. Every request
// carries the AccountKey header; responses wrap their payload in a
// top-level "value" array.
package datamall

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/SSTengNic/DL-Project/internal/dataset"
	"github.com/SSTengNic/DL-Project/internal/fetch"
	"github.com/SSTengNic/DL-Project/internal/geo"
)

const (
	EndpointTrafficIncidents = "/TrafficIncidents"
	EndpointTaxiStands       = "/TaxiStands"
)

// IncidentLayout is the DateTime format of the incidents CSV.
const IncidentLayout = "2006-01-02 15:04"

// IncidentHeader is the incidents CSV header. All four columns identify
// an incident, so deduplication keys on the full row.
var IncidentHeader = []string{"DateTime", "Type", "Latitude", "Longitude"}

// Headers builds the request headers DataMall requires.
func Headers(accountKey string) map[string]string {
	return map[string]string{
		"AccountKey": accountKey,
		"accept":     "application/json",
	}
}

// Incident is one traffic incident with the occurrence time recovered
// from its message text.
type Incident struct {
	DateTime  time.Time
	Type      string
	Latitude  float64
	Longitude float64
}

// Incident messages embed the occurrence time as "(d/m)HH:MM".
var messageTime = regexp.MustCompile(`\((\d{1,2})/(\d{1,2})\)(\d{2}):(\d{2})`)

// parseMessageTime recovers the occurrence time from an incident message,
// assuming the given year. Messages without the marker report false.
func parseMessageTime(message string, year int) (time.Time, bool) {
	m := messageTime.FindStringSubmatch(message)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

type incidentsResponse struct {
	Value []struct {
		Type      string  `json:"Type"`
		Latitude  float64 `json:"Latitude"`
		Longitude float64 `json:"Longitude"`
		Message   string  `json:"Message"`
	} `json:"value"`
}

// ExtractIncidents maps a raw TrafficIncidents response to incidents.
// Entries whose message has no parseable time are skipped; coordinates
// are rounded to 5 decimals so re-fetched rows deduplicate cleanly.
func ExtractIncidents(raw []byte, year int) []Incident {
	var payload incidentsResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	var incidents []Incident
	for _, item := range payload.Value {
		ts, ok := parseMessageTime(item.Message, year)
		if !ok {
			continue
		}
		incidents = append(incidents, Incident{
			DateTime:  ts,
			Type:      item.Type,
			Latitude:  geo.Round5(item.Latitude),
			Longitude: geo.Round5(item.Longitude),
		})
	}
	return incidents
}

// FetchIncidents retrieves and extracts the current traffic incidents.
func FetchIncidents(ctx context.Context, c *fetch.Client, now time.Time) ([]Incident, error) {
	raw, err := c.Get(ctx, EndpointTrafficIncidents, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch traffic incidents: %w", err)
	}
	return ExtractIncidents(raw, now.Year()), nil
}

// IncidentRows renders incidents as CSV rows.
func IncidentRows(incidents []Incident) [][]string {
	rows := make([][]string, 0, len(incidents))
	for _, in := range incidents {
		rows = append(rows, []string{
			in.DateTime.Format(IncidentLayout),
			in.Type,
			dataset.FormatValue(in.Latitude),
			dataset.FormatValue(in.Longitude),
		})
	}
	return rows
}

// TaxiStand is one taxi stand location.
type TaxiStand struct {
	Code      string
	Latitude  float64
	Longitude float64
}

type taxiStandsResponse struct {
	Value []struct {
		TaxiCode  string  `json:"TaxiCode"`
		Latitude  float64 `json:"Latitude"`
		Longitude float64 `json:"Longitude"`
	} `json:"value"`
}

// FetchTaxiStands retrieves all taxi stands.
func FetchTaxiStands(ctx context.Context, c *fetch.Client) ([]TaxiStand, error) {
	raw, err := c.Get(ctx, EndpointTaxiStands, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch taxi stands: %w", err)
	}

	var payload taxiStandsResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode taxi stands: %w", err)
	}

	stands := make([]TaxiStand, 0, len(payload.Value))
	for _, item := range payload.Value {
		stands = append(stands, TaxiStand{
			Code:      item.TaxiCode,
			Latitude:  item.Latitude,
			Longitude: item.Longitude,
		})
	}
	return stands, nil
}

// CountInBox counts the stands inside the box.
func CountInBox(stands []TaxiStand, box geo.Box) int {
	n := 0
	for _, stand := range stands {
		if box.Contains(stand.Longitude, stand.Latitude) {
			n++
		}
	}
	return n
}
