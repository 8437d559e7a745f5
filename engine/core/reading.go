package core

import "time"

// Reading is the storage-aware envelope wrapping an engine's raw result.
// It is immutable after assembly; a recalculation produces a new Reading
// with a fresh ReadingID.
type Reading struct {
	EngineName       string    `json:"engine_name"`
	CalculationTime  float64   `json:"calculation_time_seconds"`
	ConfidenceScore  float64   `json:"confidence_score"`
	Timestamp        time.Time `json:"timestamp"`
	RawData          Output    `json:"raw_data"`
	FormattedOutput  any       `json:"formatted_output"`
	Recommendations  []string  `json:"recommendations"`
	FieldSignature   any       `json:"field_signature,omitempty"`
	RealityPatches   []string  `json:"reality_patches"`
	ArchetypalThemes []string  `json:"archetypal_themes"`

	ReadingID       ID             `json:"reading_id"`
	UserID          string         `json:"user_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
	StorageMetadata map[string]any `json:"storage_metadata"`
	KVCacheKeys     []string       `json:"kv_cache_keys"`
	TableRefs       []string       `json:"d1_table_refs"`
	PrivacyLevel    PrivacyLevel   `json:"privacy_level"`
}

// MetaValue reads a storage-metadata entry, tolerating a nil map.
func (r *Reading) MetaValue(key string) any {
	if r == nil || r.StorageMetadata == nil {
		return nil
	}
	return r.StorageMetadata[key]
}

// SetMeta writes a storage-metadata entry, allocating the map on first use.
func (r *Reading) SetMeta(key string, value any) {
	if r.StorageMetadata == nil {
		r.StorageMetadata = make(map[string]any)
	}
	r.StorageMetadata[key] = value
}

// CacheHit reports whether this reading was served from the cache.
func (r *Reading) CacheHit() bool {
	hit, _ := r.MetaValue("cache_hit").(bool)
	return hit
}

// AddWarning appends a non-fatal storage warning visible to the caller.
func (r *Reading) AddWarning(msg string) {
	warnings, _ := r.MetaValue("warnings").([]string)
	r.SetMeta("warnings", append(warnings, msg))
}
