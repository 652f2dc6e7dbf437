package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

// record accepts both the flat layout and the nested upstream layout.
type record struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`

	VesselID      string   `json:"vessel_id"`
	VesselName    string   `json:"vessel_name"`
	VesselFlag    string   `json:"vessel_flag"`
	PortID        string   `json:"port_id"`
	PortName      string   `json:"port_name"`
	PortCountry   string   `json:"port_country"`
	PortLatitude  *float64 `json:"port_latitude"`
	PortLongitude *float64 `json:"port_longitude"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`

	Vessel *vesselRecord `json:"vessel"`
	Port   *portRecord   `json:"port"`
	Start  string        `json:"start"`
	End    string        `json:"end"`

	DurationHours *float64 `json:"duration_hours"`
}

type vesselRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

type portRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type envelope struct {
	Events []record `json:"events"`
}

// FileSource reads events from a JSON file on every call.
type FileSource struct {
	path string
}

// NewFileSource returns a source backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string { return s.path }

// Events implements Source.
func (s *FileSource) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read events file: %w", ErrSource, err)
	}
	records, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSource, s.path, err)
	}

	out := make([]model.Event, 0, len(records))
	for i := range records {
		e := records[i].event()
		if inRange(&e, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// decode accepts a top-level array of records or an {"events": [...]} object.
func decode(b []byte) ([]record, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var records []record
		if err := json.Unmarshal(b, &records); err != nil {
			return nil, fmt.Errorf("unmarshal events: %w", err)
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshal events envelope: %w", err)
	}
	return env.Events, nil
}

func (r *record) event() model.Event {
	e := model.Event{
		EventID:       r.EventID,
		EventType:     r.EventType,
		VesselID:      r.VesselID,
		VesselName:    r.VesselName,
		VesselFlag:    r.VesselFlag,
		PortID:        r.PortID,
		PortName:      r.PortName,
		PortCountry:   r.PortCountry,
		PortLatitude:  r.PortLatitude,
		PortLongitude: r.PortLongitude,
		StartTime:     parseTime(firstNonEmpty(r.StartTime, r.Start)),
		EndTime:       parseTime(firstNonEmpty(r.EndTime, r.End)),
		DurationHours: r.DurationHours,
	}
	if v := r.Vessel; v != nil {
		e.VesselID = firstNonEmpty(e.VesselID, v.ID)
		e.VesselName = firstNonEmpty(e.VesselName, v.Name)
		e.VesselFlag = firstNonEmpty(e.VesselFlag, v.Flag)
	}
	if p := r.Port; p != nil {
		e.PortID = firstNonEmpty(e.PortID, p.ID)
		e.PortName = firstNonEmpty(e.PortName, p.Name)
		e.PortCountry = firstNonEmpty(e.PortCountry, p.Country)
		if len(p.Coordinates) >= 2 && e.PortLatitude == nil && e.PortLongitude == nil {
			e.PortLongitude = model.Float(p.Coordinates[0])
			e.PortLatitude = model.Float(p.Coordinates[1])
		}
	}
	if e.DurationHours == nil && !e.StartTime.IsZero() && !e.EndTime.IsZero() {
		e.DurationHours = model.Float(e.EndTime.Sub(e.StartTime).Hours())
	}
	return e
}

// timeLayouts are tried in order. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime returns the zero time for empty or unparseable input.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
