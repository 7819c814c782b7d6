package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// SourceNote is the provenance line stamped on every document.
const SourceNote = "Real data from NASA NeoWs (api.nasa.gov). Endpoint: /neo/browse"

// GeneratedLayout is the generated_utc format: ISO-8601, UTC, second precision.
const GeneratedLayout = "2006-01-02T15:04:05Z"

// clock stamps generated_utc. Fixture tooling and tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the document clock; nil restores real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// NewDocument wraps accepted records in a Document stamped with the current
// UTC time. A nil slice is serialised as an empty array.
func NewDocument(records []CanonicalRecord) Document {
	if records == nil {
		records = []CanonicalRecord{}
	}
	return Document{
		SourceNote:   SourceNote,
		GeneratedUTC: clock.Now().UTC().Format(GeneratedLayout),
		Count:        len(records),
		Objects:      records,
	}
}

// ParseGenerated parses a document's generated_utc stamp.
func ParseGenerated(s string) (time.Time, error) {
	return time.Parse(GeneratedLayout, s)
}
