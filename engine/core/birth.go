package core

import (
	"fmt"
	"time"
)

// BirthData is the shared birth-information entity. Date is the calendar
// date in the birth zone; Clock and Location are optional and required
// only by the chart engines.
type BirthData struct {
	Date      time.Time `json:"birth_date"`
	Clock     string    `json:"birth_time,omitempty"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	HasClock  bool      `json:"-"`
	HasPlace  bool      `json:"-"`
}

// BirthDateLayout is the wire format for calendar dates.
const BirthDateLayout = "2006-01-02"

// DecodeBirthData extracts birth data from a raw input. When full is
// true, birth_time, birth_location, and timezone become mandatory; the
// chart engines cannot run without them.
func DecodeBirthData(input Input, engine string, full bool) (*BirthData, error) {
	raw, ok := input["birth_date"]
	if !ok || raw == nil {
		return nil, InvalidInputError(engine, "birth_date", "birth_date is required", nil)
	}
	date, err := ParseDate(raw)
	if err != nil {
		return nil, InvalidInputError(engine, "birth_date", err.Error(), err)
	}
	b := &BirthData{Date: date, Timezone: "UTC"}
	if v, ok := input["birth_time"].(string); ok && v != "" {
		b.Clock = v
		b.HasClock = true
	}
	if v, ok := input["timezone"].(string); ok && v != "" {
		b.Timezone = v
	}
	if rawLoc, ok := input["birth_location"]; ok && rawLoc != nil {
		loc, ok := rawLoc.(map[string]any)
		if !ok {
			return nil, InvalidInputError(engine, "birth_location", "must be an object with latitude and longitude", nil)
		}
		lat, latOK := ParseAnyFloat(loc["latitude"])
		lon, lonOK := ParseAnyFloat(loc["longitude"])
		if !latOK || !lonOK {
			return nil, InvalidInputError(engine, "birth_location", "latitude and longitude are required", nil)
		}
		if lat < -90 || lat > 90 {
			return nil, InvalidInputError(engine, "birth_location", fmt.Sprintf("latitude %v out of range [-90, 90]", lat), nil)
		}
		if lon < -180 || lon > 180 {
			return nil, InvalidInputError(engine, "birth_location", fmt.Sprintf("longitude %v out of range [-180, 180]", lon), nil)
		}
		b.Latitude = lat
		b.Longitude = lon
		b.HasPlace = true
	}
	if full {
		if !b.HasClock {
			return nil, InvalidInputError(engine, "birth_time", "birth_time is required for this engine", nil)
		}
		if !b.HasPlace {
			return nil, InvalidInputError(engine, "birth_location", "birth_location is required for this engine", nil)
		}
		if _, err := time.LoadLocation(b.Timezone); err != nil {
			return nil, InvalidInputError(engine, "timezone", fmt.Sprintf("unknown IANA timezone %q", b.Timezone), err)
		}
	}
	return b, nil
}

// ParseDate accepts a calendar date as YYYY-MM-DD, RFC 3339, or time.Time.
func ParseDate(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse(BirthDateLayout, v); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	default:
		return time.Time{}, fmt.Errorf("date must be a YYYY-MM-DD string")
	}
}

// BirthDataProperties returns the JSON-schema fragment for birth data.
func BirthDataProperties() map[string]any {
	return map[string]any{
		"birth_date": map[string]any{"type": "string"},
		"birth_time": map[string]any{"type": "string"},
		"birth_location": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number", "minimum": -90, "maximum": 90},
				"longitude": map[string]any{"type": "number", "minimum": -180, "maximum": 180},
			},
			"required":             []any{"latitude", "longitude"},
			"additionalProperties": false,
		},
		"timezone": map[string]any{"type": "string"},
	}
}
