package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AUKilometers is the IAU 2012 astronomical unit in kilometres.
const AUKilometers = 149_597_870.7

// Canonical names of the required orbital fields, as reported for rejections.
const (
	FieldSemiMajorAxis = "a_km"
	FieldEccentricity  = "e"
	FieldInclination   = "i_deg"
	FieldRAAN          = "raan_deg"
	FieldArgPerihelion = "argp_deg"
	FieldMeanAnomaly   = "M_deg"
	FieldEpoch         = "epoch_tdb"
)

// orbitalAliases lists, per required field, the "orbital_data" keys to try in
// priority order. The semi-major axis candidates are in AU.
var orbitalAliases = []struct {
	field string
	keys  []string
}{
	{FieldSemiMajorAxis, []string{"semi_major_axis", "a"}},
	{FieldEccentricity, []string{"eccentricity", "e"}},
	{FieldInclination, []string{"inclination", "i"}},
	{FieldRAAN, []string{"ascending_node_longitude", "om"}},
	{FieldArgPerihelion, []string{"perihelion_argument", "w"}},
	{FieldMeanAnomaly, []string{"mean_anomaly", "ma"}},
	{FieldEpoch, []string{"epoch_osculation", "epoch"}},
}

// Normalize maps a raw NeoWs record onto a CanonicalRecord.
//
// The returned slice names the required fields that could not be resolved to
// a finite number, in table order. The record is usable only when the slice is
// empty; otherwise the returned CanonicalRecord is the zero value. Normalize
// has no side effects and returns identical output for identical input.
func Normalize(raw RawRecord) (CanonicalRecord, []string) {
	orbital := asMap(raw["orbital_data"])

	resolved := make(map[string]float64, len(orbitalAliases))
	var missing []string
	for _, alias := range orbitalAliases {
		v, ok := resolveNumber(orbital, alias.keys...)
		if !ok {
			missing = append(missing, alias.field)
			continue
		}
		resolved[alias.field] = v
	}
	if len(missing) > 0 {
		return CanonicalRecord{}, missing
	}

	refID := stringField(raw, "neo_reference_id")
	designation := stringField(raw, "name")
	if designation == nil {
		designation = refID
	}

	return CanonicalRecord{
		Designation:     designation,
		NeoReferenceID:  refID,
		EpochTDB:        resolved[FieldEpoch],
		SemiMajorAxisKm: resolved[FieldSemiMajorAxis] * AUKilometers,
		Eccentricity:    resolved[FieldEccentricity],
		InclinationDeg:  resolved[FieldInclination],
		RAANDeg:         resolved[FieldRAAN],
		ArgPerihelion:   resolved[FieldArgPerihelion],
		MeanAnomalyDeg:  resolved[FieldMeanAnomaly],

		AbsoluteMagnitude: optionalNumber(raw, "absolute_magnitude_h"),
		DiameterKm:        averageDiameterKm(raw),
		Albedo:            optionalNumber(orbital, "albedo"),
		Hazardous:         toBool(raw["is_potentially_hazardous_asteroid"]),
	}, nil
}

// resolveNumber returns the first candidate key whose value is numeric.
func resolveNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := toFloat(m[k]); ok {
			return v, true
		}
	}
	return 0, false
}

func optionalNumber(m map[string]any, key string) *float64 {
	v, ok := toFloat(m[key])
	if !ok {
		return nil
	}
	return &v
}

// averageDiameterKm returns the mean of the estimated kilometre bounds, or nil
// unless both bounds are numeric.
func averageDiameterKm(raw RawRecord) *float64 {
	km := asMap(asMap(raw["estimated_diameter"])["kilometers"])
	lo, okLo := toFloat(km["estimated_diameter_min"])
	hi, okHi := toFloat(km["estimated_diameter_max"])
	if !okLo || !okHi {
		return nil
	}
	avg := 0.5 * (lo + hi)
	return &avg
}

// toFloat coerces upstream values to a finite float64. Strings are trimmed and
// parsed; booleans, nulls, containers and non-finite results are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toBool coerces the hazard flag. Absent or unrecognised values are false.
func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	default:
		f, ok := toFloat(x)
		return ok && f != 0
	}
}

// stringField returns a non-empty string (or number rendered as text) for key.
func stringField(m map[string]any, key string) *string {
	var s string
	switch x := m[key].(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case RawRecord:
		return m
	default:
		return nil
	}
}
