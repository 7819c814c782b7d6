// Command genmock reads saved NeoWs browse pages and generates a normalised
// fixture document. It uses the real domain normaliser so the fixture matches
// what the harvester would write for the same pages.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -pages-dir data/mock \
//	  -out data/mock/neodb_fixture.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/neo-harvester/internal/adapter/neows"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixtureTime stamps generated_utc so regenerated fixtures diff cleanly.
var fixtureTime = time.Date(2025, time.September, 30, 16, 4, 5, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	pagesDir := flag.String("pages-dir", "", "directory containing saved browse page JSON files")
	out := flag.String("out", "", "output path for the fixture document")
	strict := flag.Bool("strict", false, "also drop records failing the plausibility rules")
	flag.Parse()

	if *pagesDir == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -pages-dir, -out")
	}

	paths, err := pageFiles(*pagesDir)
	if err != nil {
		return err
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	doc, stats, err := buildFixture(paths, *strict)
	if err != nil {
		return err
	}
	log.Printf("pages: %d, objects: %d, accepted: %d", len(paths), stats.seen, doc.Count)

	if err := writeJSON(*out, doc); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(os.Stdout, doc, stats)
	return nil
}

// pageFiles lists the browse_page_*.json files in dir in name order.
func pageFiles(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "browse_page_*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no browse_page_*.json files in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	seen        int
	missing     map[string]int // required field -> records lacking it
	implausible int
}

func buildFixture(paths []string, strict bool) (domain.Document, statsResult, error) {
	stats := statsResult{missing: map[string]int{}}
	var accepted []domain.CanonicalRecord //nolint:prealloc // size depends on page contents

	for _, path := range paths {
		page, err := readPage(path)
		if err != nil {
			return domain.Document{}, stats, fmt.Errorf("processing %s: %w", filepath.Base(path), err)
		}
		for _, raw := range page.Objects {
			stats.seen++
			rec, missing := domain.Normalize(raw)
			if len(missing) > 0 {
				for _, f := range missing {
					stats.missing[f]++
				}
				continue
			}
			if strict {
				if err := domain.ValidatePlausible(rec); err != nil {
					stats.implausible++
					continue
				}
			}
			accepted = append(accepted, rec)
		}
	}

	return domain.NewDocument(accepted), stats, nil
}

func readPage(path string) (domain.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Page{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return neows.DecodePage(f)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(w io.Writer, doc domain.Document, stats statsResult) {
	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Objects: %d, accepted: %d, implausible: %d\n", stats.seen, doc.Count, stats.implausible)

	fields := make([]string, 0, len(stats.missing))
	for f := range stats.missing {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	fmt.Fprint(w, "Missing:")
	for _, f := range fields {
		fmt.Fprintf(w, " %s=%d", f, stats.missing[f])
	}
	fmt.Fprintln(w)

	var hazardous, withDiameter, withAlbedo, withH int
	for i := range doc.Objects {
		r := &doc.Objects[i]
		if r.Hazardous {
			hazardous++
		}
		if r.DiameterKm != nil {
			withDiameter++
		}
		if r.Albedo != nil {
			withAlbedo++
		}
		if r.AbsoluteMagnitude != nil {
			withH++
		}
	}
	fmt.Fprintf(w, "Hazardous: %d, with H: %d, with diameter: %d, with albedo: %d\n",
		hazardous, withH, withDiameter, withAlbedo)

	if doc.Count == 0 {
		return
	}
	first := doc.Objects[0]
	fmt.Fprintf(w, "\nFirst record:\n")
	fmt.Fprintf(w, "  Key: %s\n", first.Key())
	fmt.Fprintf(w, "  a: %.6f AU (%.1f km)\n", first.SemiMajorAxisKm/domain.AUKilometers, first.SemiMajorAxisKm)
	fmt.Fprintf(w, "  e: %g, i: %g deg\n", first.Eccentricity, first.InclinationDeg)
	fmt.Fprintf(w, "  Epoch: JD %g\n", first.EpochTDB)
}
