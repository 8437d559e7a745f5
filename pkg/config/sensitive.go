package config

import "encoding/json"

// SensitiveString holds a secret value that must never leak through
// logging or serialization. Use Value() at the point of use.
type SensitiveString string

// String implements fmt.Stringer and redacts the underlying value.
func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString redacts the value in %#v output as well.
func (s SensitiveString) GoString() string {
	return s.String()
}

// Value returns the actual secret.
func (s SensitiveString) Value() string {
	return string(s)
}

// MarshalJSON serializes the redacted form.
func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the raw secret from JSON input.
func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}
