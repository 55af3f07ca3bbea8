package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Client struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

type Booking struct {
	ID               int64           `json:"id"`
	Client           *Client         `json:"client,omitempty"`
	PerformerID      int64           `json:"performer_id,omitempty"`
	Performer        json.RawMessage `json:"performer,omitempty"`
	EventName        string          `json:"event_name"`
	ThemeName        string          `json:"theme_name"`
	StartDate        string          `json:"start_date"`
	StartTime        string          `json:"start_time"`
	EndTime          string          `json:"end_time"`
	MunicipalityName string          `json:"municipality_name"`
	BarangayName     string          `json:"barangay_name"`
	Notes            string          `json:"notes"`
	Status           string          `json:"status"`
}

func (b Booking) ClientName() string {
	if b.Client == nil {
		return ""
	}
	return strings.TrimSpace(b.Client.Name + " " + b.Client.Lastname)
}

func (b Booking) EventAndTheme() string {
	switch {
	case b.ThemeName == "":
		return b.EventName
	case b.EventName == "":
		return b.ThemeName
	}
	return b.EventName + ", " + b.ThemeName
}

func (b Booking) Location() string {
	switch {
	case b.BarangayName == "":
		return b.MunicipalityName
	case b.MunicipalityName == "":
		return b.BarangayName
	}
	return b.MunicipalityName + ", " + b.BarangayName
}

// TimeRange renders the slot as "3:00 PM to 5:00 PM".
func (b Booking) TimeRange() string {
	start, end := Clock12(b.StartTime), Clock12(b.EndTime)
	if start == "" && end == "" {
		return ""
	}
	return start + " to " + end
}

// Day returns the booking start date as a calendar day in loc.
func (b Booking) Day(loc *time.Location) (time.Time, bool) {
	return ParseTimestamp(b.StartDate, loc)
}

// Portfolio is the performer profile; only its id drives the booking view.
type Portfolio struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnavailableDate is a day a performer has blocked.
type UnavailableDate struct {
	Date time.Time `json:"date"`
}
