package models

import (
	"encoding/json"
	"time"
)

// legacyLayout is the naive local-time ISO format found in ledgers written by
// the original POS server.
const legacyLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a time.Time that also decodes zone-less ISO 8601 values.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
