package domain

// RawRecord is one element of the NeoWs "near_earth_objects" array, decoded
// with json.Decoder.UseNumber so numeric values arrive as json.Number.
type RawRecord map[string]any

// Page is one page of the NeoWs browse listing.
type Page struct {
	Number     int
	TotalPages int // 0 when the upstream did not report it
	Objects    []RawRecord
}

// CanonicalRecord is the normalised orbital and physical description of a
// single NEO. Pointer fields are nullable and serialise as JSON null.
type CanonicalRecord struct {
	Designation    *string `json:"designation"`
	NeoReferenceID *string `json:"neo_reference_id"`

	EpochTDB        float64 `json:"epoch_tdb"`
	SemiMajorAxisKm float64 `json:"a_km"`
	Eccentricity    float64 `json:"e"`
	InclinationDeg  float64 `json:"i_deg"`
	RAANDeg         float64 `json:"raan_deg"`
	ArgPerihelion   float64 `json:"argp_deg"`
	MeanAnomalyDeg  float64 `json:"M_deg"`

	AbsoluteMagnitude *float64 `json:"H_mag"`
	DiameterKm        *float64 `json:"diameter_km"`
	Albedo            *float64 `json:"albedo"`
	Hazardous         bool     `json:"pha_flag"`
}

// Key returns the identifier used by keyed sinks: the reference id when
// present, otherwise the designation, otherwise "".
func (r CanonicalRecord) Key() string {
	if r.NeoReferenceID != nil {
		return *r.NeoReferenceID
	}
	if r.Designation != nil {
		return *r.Designation
	}
	return ""
}

// Document is the on-disk NEO database consumed by the renderer.
type Document struct {
	SourceNote   string            `json:"source_note"`
	GeneratedUTC string            `json:"generated_utc"`
	Count        int               `json:"count"`
	Objects      []CanonicalRecord `json:"objects"`
}
