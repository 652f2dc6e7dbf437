// Package model contains domain models passed between layers.
package model

import "time"

// EventTypePortVisit is the only event type the aggregator consumes.
const EventTypePortVisit = "port_visit"

// Event is a vessel activity record supplied by the event source.
// DurationHours is nil when the upstream record carries no duration.
type Event struct {
	EventID       string
	EventType     string
	VesselID      string
	VesselName    string
	VesselFlag    string
	PortID        string
	PortName      string
	PortCountry   string
	PortLatitude  *float64
	PortLongitude *float64
	StartTime     time.Time
	EndTime       time.Time
	DurationHours *float64
}

// Hours returns the duration and whether it was present.
func (e *Event) Hours() (float64, bool) {
	if e.DurationHours == nil {
		return 0, false
	}
	return *e.DurationHours, true
}

// Float returns a pointer to v, for building events with a duration.
func Float(v float64) *float64 { return &v }
