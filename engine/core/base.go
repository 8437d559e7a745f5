package core

import (
	"fmt"
	"time"
)

// BaseInput carries the fields shared by every engine input. They ride in
// the same JSON object as the engine-specific fields and are peeled off
// before the engine sees its payload.
type BaseInput struct {
	UserID                string       `json:"user_id,omitempty"`
	SessionID             string       `json:"session_id,omitempty"`
	Timestamp             time.Time    `json:"timestamp"`
	ReadingID             ID           `json:"reading_id,omitempty"`
	CacheKey              string       `json:"cache_key,omitempty"`
	StoreReading          bool         `json:"store_reading"`
	CacheResult           bool         `json:"cache_result"`
	RetentionDays         *int         `json:"retention_days,omitempty"`
	DataProcessingConsent bool         `json:"data_processing_consent"`
	PrivacyLevel          PrivacyLevel `json:"privacy_level"`
}

// baseFieldNames is the reserved key set every engine schema admits in
// addition to its own fields.
var baseFieldNames = []string{
	"user_id",
	"session_id",
	"timestamp",
	"reading_id",
	"cache_key",
	"store_reading",
	"cache_result",
	"retention_days",
	"data_processing_consent",
	"privacy_level",
	"admin_api_key",
}

// BaseFieldNames returns the reserved base input keys.
func BaseFieldNames() []string {
	names := make([]string, len(baseFieldNames))
	copy(names, baseFieldNames)
	return names
}

// BaseInputProperties returns the JSON-schema property definitions for the
// shared base fields.
func BaseInputProperties() map[string]any {
	return map[string]any{
		"user_id":       map[string]any{"type": "string"},
		"session_id":    map[string]any{"type": "string"},
		"timestamp":     map[string]any{"type": "string", "format": "date-time"},
		"reading_id":    map[string]any{"type": "string"},
		"cache_key":     map[string]any{"type": "string"},
		"store_reading": map[string]any{"type": "boolean"},
		"cache_result":  map[string]any{"type": "boolean"},
		"retention_days": map[string]any{
			"type":    "integer",
			"minimum": 1,
		},
		"data_processing_consent": map[string]any{"type": "boolean"},
		"privacy_level": map[string]any{
			"type": "string",
			"enum": []any{"minimal", "standard", "enhanced", "biometric"},
		},
		"admin_api_key": map[string]any{"type": "string"},
	}
}

// DecodeBase extracts the shared fields from a raw input, applying the
// documented defaults: timestamp now, store_reading and cache_result true,
// consent false, privacy standard.
func DecodeBase(input Input) (*BaseInput, error) {
	b := &BaseInput{
		Timestamp:    time.Now().UTC(),
		StoreReading: true,
		CacheResult:  true,
		PrivacyLevel: PrivacyStandard,
	}
	if input == nil {
		return b, nil
	}
	if v, ok := input["user_id"].(string); ok {
		b.UserID = v
	}
	if v, ok := input["session_id"].(string); ok {
		b.SessionID = v
	}
	if raw, ok := input["timestamp"]; ok && raw != nil {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, InvalidInputError("", "timestamp", err.Error(), err)
		}
		b.Timestamp = ts.UTC()
	}
	if v, ok := input["reading_id"].(string); ok && v != "" {
		b.ReadingID = ID(v)
	}
	if v, ok := input["cache_key"].(string); ok {
		b.CacheKey = v
	}
	if v, ok := input["store_reading"].(bool); ok {
		b.StoreReading = v
	}
	if v, ok := input["cache_result"].(bool); ok {
		b.CacheResult = v
	}
	if raw, ok := input["retention_days"]; ok && raw != nil {
		days, ok := ParseAnyInt(raw)
		if !ok || days < 1 {
			return nil, InvalidInputError("", "retention_days", "must be a positive integer", nil)
		}
		b.RetentionDays = &days
	}
	if v, ok := input["data_processing_consent"].(bool); ok {
		b.DataProcessingConsent = v
	}
	if raw, ok := input["privacy_level"]; ok && raw != nil {
		s, _ := raw.(string)
		level, err := ParsePrivacyLevel(s)
		if err != nil {
			return nil, InvalidInputError("", "privacy_level", err.Error(), err)
		}
		b.PrivacyLevel = level
	}
	return b, nil
}

func parseTimestamp(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp must be RFC 3339: %w", err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("timestamp must be an RFC 3339 string")
	}
}
