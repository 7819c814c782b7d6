package domain

import validation "github.com/go-ozzo/ozzo-validation/v4"

// ValidatePlausible checks a normalised record against physical bounds for a
// bound heliocentric orbit. Normalize itself trusts any parsed number; this
// check backs the opt-in strict mode.
//
// Errors are keyed by the JSON field name, e.g. "a_km: must be greater than 0.".
func ValidatePlausible(r CanonicalRecord) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SemiMajorAxisKm, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Eccentricity, validation.Min(0.0), validation.Max(1.0).Exclusive()),
		validation.Field(&r.InclinationDeg, validation.Min(0.0), validation.Max(180.0)),
		validation.Field(&r.RAANDeg, validation.Min(0.0), validation.Max(360.0)),
		validation.Field(&r.ArgPerihelion, validation.Min(0.0), validation.Max(360.0)),
		validation.Field(&r.MeanAnomalyDeg, validation.Min(0.0), validation.Max(360.0)),
		validation.Field(&r.EpochTDB, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.DiameterKm, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Albedo, validation.Min(0.0), validation.Max(1.0)),
	)
}
