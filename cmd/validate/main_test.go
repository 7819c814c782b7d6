package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockDir = filepath.Join("..", "..", "data", "mock")

func strPtr(s string) *string { return &s }

func validRecord(ref string) domain.CanonicalRecord {
	return domain.CanonicalRecord{
		Designation:     strPtr("(" + ref + ")"),
		NeoReferenceID:  strPtr(ref),
		EpochTDB:        2461000.5,
		SemiMajorAxisKm: 1.2 * domain.AUKilometers,
		Eccentricity:    0.3,
		InclinationDeg:  4.5,
		RAANDeg:         120,
		ArgPerihelion:   60,
		MeanAnomalyDeg:  10,
	}
}

func writeDoc(t *testing.T, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "neodb.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_ValidDocumentWithParity(t *testing.T) {
	var records []domain.CanonicalRecord
	for _, path := range []string{filepath.Join(mockDir, "browse_page_0.json")} {
		page, err := readPage(path)
		require.NoError(t, err)
		for _, raw := range page.Objects {
			if rec, missing := domain.Normalize(raw); len(missing) == 0 {
				records = append(records, rec)
			}
		}
	}
	require.Len(t, records, 3)

	// The document may hold a prefix of what the pages yield.
	path := writeDoc(t, domain.NewDocument(records[:2]))

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, path, mockDir, false), out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_DetectsFailures(t *testing.T) {
	dup := validRecord("2000433")
	bad := validRecord("2000433")
	bad.Eccentricity = 1.5

	doc := domain.NewDocument([]domain.CanonicalRecord{dup, bad})
	doc.Count = 5
	path := writeDoc(t, doc)

	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, path, "", true))
	assert.Contains(t, out.String(), "Validation FAILED.")
	assert.Contains(t, out.String(), "count: field says 5, objects has 2")
	assert.Contains(t, out.String(), "key 2000433 already used by object 0")
	assert.Contains(t, out.String(), "e: must be less than 1")
}

func TestValidateRequired_Nulls(t *testing.T) {
	objects := []map[string]any{{
		"designation": nil, "neo_reference_id": nil,
		"epoch_tdb": 2461000.5, "a_km": nil, "e": 0.1, "i_deg": 1.0,
		"raan_deg": 2.0, "argp_deg": 3.0,
		"pha_flag": false,
	}}

	p := validateRequired(objects)
	require.False(t, p.passed())
	assert.Contains(t, p.errors, "object 0: a_km is <nil>, want a number")
	assert.Contains(t, p.errors, "object 0: missing M_deg")
	assert.Len(t, p.errors, 2, "null identifiers are allowed")
}

func TestRun_KeylessRecordIsValid(t *testing.T) {
	raw := domain.RawRecord{
		"orbital_data": map[string]any{
			"semi_major_axis":          "1.2",
			"eccentricity":             "0.3",
			"inclination":              "4.5",
			"ascending_node_longitude": "120.0",
			"perihelion_argument":      "60.0",
			"mean_anomaly":             "10.0",
			"epoch_osculation":         "2461000.5",
		},
	}
	rec, missing := domain.Normalize(raw)
	require.Empty(t, missing)
	require.Empty(t, rec.Key())

	path := writeDoc(t, domain.NewDocument([]domain.CanonicalRecord{rec, rec}))

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, path, "", false), out.String())
	assert.Contains(t, out.String(), "without a key: 2")
}

func TestRun_ImplausibleOnlyFailsInStrictMode(t *testing.T) {
	hyperbolic := validRecord("2000433")
	hyperbolic.Eccentricity = 1.2
	path := writeDoc(t, domain.NewDocument([]domain.CanonicalRecord{hyperbolic}))

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, path, "", false), out.String())

	out.Reset()
	assert.Equal(t, 1, run(&out, path, "", true))
	assert.Contains(t, out.String(), "Strict: Physical plausibility")
}

func TestValidateParity_StrictGate(t *testing.T) {
	dir := t.TempDir()
	orbital := func(e string) map[string]any {
		return map[string]any{
			"semi_major_axis":          "1.2",
			"eccentricity":             e,
			"inclination":              "4.5",
			"ascending_node_longitude": "120.0",
			"perihelion_argument":      "60.0",
			"mean_anomaly":             "10.0",
			"epoch_osculation":         "2461000.5",
		}
	}
	page := map[string]any{
		"page": map[string]any{"number": 0, "total_pages": 1},
		"near_earth_objects": []map[string]any{
			{"neo_reference_id": "3000001", "orbital_data": orbital("1.4")},
			{"neo_reference_id": "3000002", "orbital_data": orbital("0.3")},
		},
	}
	data, err := json.Marshal(page)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "browse_page_0.json"), data, 0o600))

	pages, err := readPage(filepath.Join(dir, "browse_page_0.json"))
	require.NoError(t, err)
	kept, missing := domain.Normalize(pages.Objects[1])
	require.Empty(t, missing)

	// A --strict document drops the hyperbolic record.
	records := []domain.CanonicalRecord{kept}
	assert.True(t, validateParity(records, dir, true).passed())
	assert.False(t, validateParity(records, dir, false).passed())
}

func TestValidateParity_Mismatch(t *testing.T) {
	p := validateParity([]domain.CanonicalRecord{validRecord("9999999")}, mockDir, false)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "object 0 (9999999) differs")
}

func TestValidateEnvelope_BadTimestamp(t *testing.T) {
	p := validateEnvelope(domain.Document{SourceNote: domain.SourceNote, GeneratedUTC: "yesterday", Objects: []domain.CanonicalRecord{}})
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "generated_utc")
}
