package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/couchcryptid/neo-harvester/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultMaxPages bounds pagination when the upstream reports no page count.
const DefaultMaxPages = 1000

// ErrLoad marks a failure in one of the document loaders.
var ErrLoad = errors.New("load document")

// PageFetcher retrieves one zero-based page of raw records.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, size int) (domain.Page, error)
}

// Normalizer converts a raw record into a canonical record, reporting false
// when the record is rejected.
type Normalizer interface {
	Normalize(raw domain.RawRecord) (domain.CanonicalRecord, bool)
}

// Loader persists or publishes a finished document.
type Loader interface {
	Name() string
	Load(ctx context.Context, doc domain.Document) error
}

// Options controls a single harvest run.
type Options struct {
	Target    int           // accepted records to collect
	PageSize  int           // records requested per page
	PageDelay time.Duration // pause before every request after the first
	MaxPages  int           // page bound when the upstream reports none; <= 0 means DefaultMaxPages
	Clock     clockwork.Clock
}

// Pipeline drives the fetch-normalise-load run.
type Pipeline struct {
	fetcher    PageFetcher
	normalizer Normalizer
	loaders    []Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
	clock      clockwork.Clock
}

// New creates a Pipeline. Loaders run in order once collection succeeds.
func New(f PageFetcher, n Normalizer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	c := opts.Clock
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Pipeline{
		fetcher:    f,
		normalizer: n,
		loaders:    loaders,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
		clock:      c,
	}
}

// Run collects records, builds the document and hands it to every loader.
// A retrieval failure aborts the run before any loader is invoked.
func (p *Pipeline) Run(ctx context.Context) (domain.Document, error) {
	start := p.clock.Now()
	p.metrics.LastRunSuccess.Set(0)
	defer func() {
		p.metrics.RunDuration.Set(p.clock.Since(start).Seconds())
	}()

	records, err := p.Collect(ctx)
	if err != nil {
		return domain.Document{}, err
	}

	doc := domain.NewDocument(records)
	for _, l := range p.loaders {
		if err := l.Load(ctx, doc); err != nil {
			return doc, fmt.Errorf("%w via %s: %w", ErrLoad, l.Name(), err)
		}
		p.metrics.RecordsExported.WithLabelValues(l.Name()).Add(float64(doc.Count))
		p.logger.Info("document loaded", "sink", l.Name(), "count", doc.Count)
	}

	p.metrics.LastRunSuccess.Set(1)
	return doc, nil
}

// Collect pages through the source until the target is met or pagination is
// exhausted. Accepted records keep upstream order.
func (p *Pipeline) Collect(ctx context.Context) ([]domain.CanonicalRecord, error) {
	p.logger.Info("harvest started", "target", p.opts.Target, "page_size", p.opts.PageSize)

	// Capacity is bounded by one page; the target may be far larger than the source.
	records := make([]domain.CanonicalRecord, 0, max(0, min(p.opts.Target, p.opts.PageSize)))
	bound := p.opts.MaxPages

	for page := 0; len(records) < p.opts.Target; page++ {
		if page >= bound {
			p.logger.Info("pagination exhausted", "pages", page, "accepted", len(records))
			break
		}
		if page > 0 {
			if err := p.pace(ctx); err != nil {
				return nil, fmt.Errorf("pace before page %d: %w", page, err)
			}
		}

		pg, err := p.fetcher.FetchPage(ctx, page, p.opts.PageSize)
		if err != nil {
			p.logger.Error("page retrieval failed", "page", page, "error", err)
			return nil, err
		}

		if pg.Number != page && len(pg.Objects) > 0 {
			p.logger.Warn("upstream returned a different page", "requested", page, "returned", pg.Number)
		}

		before := len(records)
		records = p.accept(records, pg.Objects)
		p.logger.Info("page processed",
			"page", page,
			"objects", len(pg.Objects),
			"accepted", len(records)-before,
			"accepted_total", len(records),
		)

		if pg.TotalPages > 0 {
			bound = pg.TotalPages
		}
		if len(pg.Objects) == 0 {
			p.logger.Info("source exhausted", "page", page, "accepted", len(records))
			break
		}
	}

	return records, nil
}

// accept normalises raws in order, appending until the target is reached.
func (p *Pipeline) accept(records []domain.CanonicalRecord, raws []domain.RawRecord) []domain.CanonicalRecord {
	for _, raw := range raws {
		if len(records) >= p.opts.Target {
			break
		}
		p.metrics.RecordsSeen.Inc()
		rec, ok := p.normalizer.Normalize(raw)
		if !ok {
			continue
		}
		records = append(records, rec)
		p.metrics.RecordsAccepted.Inc()
	}
	return records
}

// pace waits for the configured delay, returning early on cancellation.
func (p *Pipeline) pace(ctx context.Context) error {
	if p.opts.PageDelay <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.opts.PageDelay):
		return nil
	}
}
