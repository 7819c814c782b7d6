// Command validate performs integrity checks on a harvested NEO document:
// envelope consistency, required element presence, key uniqueness and, when
// saved browse pages are supplied, parity with a fresh normalisation of those
// pages. With -strict it also applies the plausibility rules, matching a
// document produced by harvest --strict.
//
// Usage:
//
//	go run ./cmd/validate -doc neodb.json [-pages-dir data/mock] [-strict]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/neo-harvester/internal/adapter/neows"
	"github.com/couchcryptid/neo-harvester/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// requiredKeys are the document keys every object must carry as numbers.
var requiredKeys = []string{
	domain.FieldEpoch,
	domain.FieldSemiMajorAxis,
	domain.FieldEccentricity,
	domain.FieldInclination,
	domain.FieldRAAN,
	domain.FieldArgPerihelion,
	domain.FieldMeanAnomaly,
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	docPath := flag.String("doc", "", "path to the harvested JSON document")
	pagesDir := flag.String("pages-dir", "", "optional directory of browse_page_*.json files the document was built from")
	strict := flag.Bool("strict", false, "the document was harvested with --strict")
	flag.Parse()

	if *docPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *docPath, *pagesDir, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, docPath, pagesDir string, strict bool) int {
	fmt.Fprintln(w, "=== NEO Document Validation ===")
	fmt.Fprintln(w)

	data, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read document: %v\n", err)
		return 1
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode document: %v\n", err)
		return 1
	}
	var loose struct {
		Objects []map[string]any `json:"objects"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode document objects: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateEnvelope(doc),
		validateRequired(loose.Objects),
		validateUniqueness(doc.Objects),
	}
	if strict {
		phases = append(phases, validatePlausibility(doc.Objects))
	}
	if pagesDir != "" {
		phases = append(phases, validateParity(doc.Objects, pagesDir, strict))
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d (count field %d), without a key: %d\n", len(doc.Objects), doc.Count, countKeyless(doc.Objects))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Envelope ──

func validateEnvelope(doc domain.Document) *phase {
	p := &phase{name: "Phase 1: Envelope"}

	if doc.SourceNote != domain.SourceNote {
		p.errorf("source_note: expected %q, got %q", domain.SourceNote, doc.SourceNote)
	}
	if _, err := domain.ParseGenerated(doc.GeneratedUTC); err != nil {
		p.errorf("generated_utc %q: %v", doc.GeneratedUTC, err)
	}
	if doc.Count != len(doc.Objects) {
		p.errorf("count: field says %d, objects has %d", doc.Count, len(doc.Objects))
	}
	return p
}

// ── Phase 2: Required elements ──
// Checks the serialised form, where a missing element would show as null.
// Identifiers are nullable and are not checked here.

func validateRequired(objects []map[string]any) *phase {
	p := &phase{name: "Phase 2: Required elements"}

	for i, obj := range objects {
		for _, k := range requiredKeys {
			v, ok := obj[k]
			if !ok {
				p.errorf("object %d: missing %s", i, k)
				continue
			}
			if _, isNum := v.(float64); !isNum {
				p.errorf("object %d: %s is %v, want a number", i, k, v)
			}
		}
		if _, ok := obj["pha_flag"].(bool); !ok {
			p.errorf("object %d: pha_flag is %v, want a boolean", i, obj["pha_flag"])
		}
	}
	return p
}

// ── Strict: Plausibility ──

func validatePlausibility(records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Strict: Physical plausibility"}

	for i := range records {
		if err := domain.ValidatePlausible(records[i]); err != nil {
			p.errorf("object %d (%s): %v", i, records[i].Key(), err)
		}
	}
	return p
}

// ── Phase 3: Uniqueness ──
// Keyless records cannot collide and are skipped.

func validateUniqueness(records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Phase 3: Reference id uniqueness"}

	seen := make(map[string]int, len(records))
	for i := range records {
		key := records[i].Key()
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			p.errorf("object %d: key %s already used by object %d", i, key, first)
			continue
		}
		seen[key] = i
	}
	return p
}

// ── Phase 4: Normalisation parity ──
// Re-normalises the saved pages and compares the accepted prefix. The strict
// gate must match the one the document was harvested with.

func validateParity(records []domain.CanonicalRecord, pagesDir string, strict bool) *phase {
	p := &phase{name: "Phase 4: Normalisation parity (pages)"}

	paths, err := filepath.Glob(filepath.Join(pagesDir, "browse_page_*.json"))
	if err != nil || len(paths) == 0 {
		p.errorf("no browse_page_*.json files in %s", pagesDir)
		return p
	}
	sort.Strings(paths)

	var expected []domain.CanonicalRecord
	for _, path := range paths {
		page, err := readPage(path)
		if err != nil {
			p.errorf("%s: %v", filepath.Base(path), err)
			return p
		}
		for _, raw := range page.Objects {
			rec, missing := domain.Normalize(raw)
			if len(missing) > 0 {
				continue
			}
			if strict && domain.ValidatePlausible(rec) != nil {
				continue
			}
			expected = append(expected, rec)
		}
	}

	if len(records) > len(expected) {
		p.errorf("document has %d objects but the pages yield only %d", len(records), len(expected))
		return p
	}
	for i := range records {
		if diff := cmp.Diff(expected[i], records[i]); diff != "" {
			p.errorf("object %d (%s) differs (-pages +document):\n%s", i, records[i].Key(), diff)
		}
	}
	return p
}

func countKeyless(records []domain.CanonicalRecord) int {
	n := 0
	for i := range records {
		if records[i].Key() == "" {
			n++
		}
	}
	return n
}

func readPage(path string) (domain.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Page{}, err
	}
	defer f.Close()
	return neows.DecodePage(f)
}
