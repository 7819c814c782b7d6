package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/couchcryptid/neo-harvester/internal/observability"
)

const (
	reasonMissingField = "missing_field"
	reasonImplausible  = "implausible"
)

// NeoTransformer implements Normalizer using the domain alias tables, with an
// optional plausibility gate.
type NeoTransformer struct {
	strict  bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a NeoTransformer. With strict set, records that
// normalise but fail the plausibility rules are rejected as well.
func NewTransformer(strict bool, logger *slog.Logger, metrics *observability.Metrics) *NeoTransformer {
	return &NeoTransformer{
		strict:  strict,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *NeoTransformer) Normalize(raw domain.RawRecord) (domain.CanonicalRecord, bool) {
	rec, missing := domain.Normalize(raw)
	if len(missing) > 0 {
		t.metrics.RecordsRejected.WithLabelValues(reasonMissingField).Inc()
		t.logger.Debug("record rejected",
			"neo_reference_id", raw["neo_reference_id"],
			"reason", reasonMissingField,
			"missing", missing,
		)
		return domain.CanonicalRecord{}, false
	}

	if t.strict {
		if err := domain.ValidatePlausible(rec); err != nil {
			t.metrics.RecordsRejected.WithLabelValues(reasonImplausible).Inc()
			t.logger.Debug("record rejected",
				"neo_reference_id", rec.Key(),
				"reason", reasonImplausible,
				"error", err,
			)
			return domain.CanonicalRecord{}, false
		}
	}

	return rec, true
}
