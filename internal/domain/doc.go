// Package domain models near-Earth-object (NEO) records from NASA's
// Near Earth Object Web Service (NeoWs) and their normalised form.
//
// # Data Source
//
// Raw records come from the NeoWs browse endpoint,
// https://api.nasa.gov/neo/rest/v1/neo/browse, which pages through the whole
// catalogue. Each element of the "near_earth_objects" array is kept as a
// [RawRecord]: the schema is not ours and varies between records and API
// revisions, so nothing is decoded into fixed structs until normalisation.
//
// # NeoWs Data Conventions
//
// Orbital elements live under "orbital_data" and are string-encoded decimals:
//
//	"semi_major_axis":          "1.458120998474684"  (AU)
//	"eccentricity":             ".2228359407071628"
//	"inclination":              "10.82846651399785"  (deg)
//	"ascending_node_longitude": "304.2993259350899"  (deg, Ω)
//	"perihelion_argument":      "178.9297536744151"  (deg, ω)
//	"mean_anomaly":             "271.0717165177894"  (deg, M)
//	"epoch_osculation":         "2461000.5"          (Julian Date, TDB)
//
// Older payloads and third-party mirrors use the short element names
// ("a", "e", "i", "om", "w", "ma", "epoch"). Both spellings are resolved
// through [orbitalAliases]; the first candidate holding a finite number wins.
//
// "orbit_determination_date" is a timestamp ("2021-04-15 06:19:55"), not a
// semi-major axis, and is never consulted.
//
// Physical parameters sit at the top level:
//
//	"absolute_magnitude_h": 10.41                       (H)
//	"estimated_diameter": {"kilometers": {"estimated_diameter_min": ...,
//	                                      "estimated_diameter_max": ...}}
//	"is_potentially_hazardous_asteroid": false
//
// # Canonical Records
//
// A [CanonicalRecord] is produced only when all six Keplerian elements and the
// osculation epoch resolve. Semi-major axis is converted from AU to km with
// [AUKilometers]; diameter is the mean of the estimated bounds. Every other
// field is best-effort and serialised as null when absent.
package domain
