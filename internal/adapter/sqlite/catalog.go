// Package sqlite keeps a queryable catalog of harvested NEOs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neo-harvester/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS neo_objects (
	ref_key          TEXT PRIMARY KEY,
	designation      TEXT,
	neo_reference_id TEXT,
	epoch_tdb        REAL NOT NULL,
	a_km             REAL NOT NULL,
	e                REAL NOT NULL,
	i_deg            REAL NOT NULL,
	raan_deg         REAL NOT NULL,
	argp_deg         REAL NOT NULL,
	m_deg            REAL NOT NULL,
	h_mag            REAL,
	diameter_km      REAL,
	albedo           REAL,
	pha_flag         INTEGER NOT NULL DEFAULT 0,
	generated_utc    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_neo_objects_pha ON neo_objects(pha_flag);
`

const upsertSQL = `
INSERT INTO neo_objects (
	ref_key, designation, neo_reference_id, epoch_tdb, a_km, e, i_deg,
	raan_deg, argp_deg, m_deg, h_mag, diameter_km, albedo, pha_flag, generated_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ref_key) DO UPDATE SET
	designation      = excluded.designation,
	neo_reference_id = excluded.neo_reference_id,
	epoch_tdb        = excluded.epoch_tdb,
	a_km             = excluded.a_km,
	e                = excluded.e,
	i_deg            = excluded.i_deg,
	raan_deg         = excluded.raan_deg,
	argp_deg         = excluded.argp_deg,
	m_deg            = excluded.m_deg,
	h_mag            = excluded.h_mag,
	diameter_km      = excluded.diameter_km,
	albedo           = excluded.albedo,
	pha_flag         = excluded.pha_flag,
	generated_utc    = excluded.generated_utc
`

// Catalog wraps a sql.DB holding the neo_objects table. It implements
// pipeline.Loader.
type Catalog struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, logger *slog.Logger) (*Catalog, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Catalog{conn: conn, logger: logger}, nil
}

// Name labels the catalog in logs and the records_exported metric.
func (c *Catalog) Name() string { return "sqlite" }

// Load upserts every record of doc in one transaction. Records without a
// reference id or designation have no key and are skipped.
func (c *Catalog) Load(ctx context.Context, doc domain.Document) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("catalog: prepare upsert: %w", err)
	}
	defer stmt.Close()

	skipped := 0
	for _, r := range doc.Objects {
		key := r.Key()
		if key == "" {
			skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			key, r.Designation, r.NeoReferenceID,
			r.EpochTDB, r.SemiMajorAxisKm, r.Eccentricity, r.InclinationDeg,
			r.RAANDeg, r.ArgPerihelion, r.MeanAnomalyDeg,
			r.AbsoluteMagnitude, r.DiameterKm, r.Albedo,
			r.Hazardous, doc.GeneratedUTC,
		); err != nil {
			return fmt.Errorf("catalog: upsert %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	if skipped > 0 {
		c.logger.Warn("catalog skipped records without a key", "skipped", skipped)
	}

	total, err := c.Count(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("catalog updated", "upserted", len(doc.Objects)-skipped, "total", total)
	return nil
}

// Count returns the number of catalogued objects.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.conn.QueryRowContext(ctx, `SELECT count(*) FROM neo_objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.conn.Close()
}
