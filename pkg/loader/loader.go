// Package loader moves produced review files into the DuckDB store,
// inserting only the records whose identifier is not already a key, then
// republishes the full primary table as a Parquet snapshot.
package loader

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scorchlab/litpipe/pkg/schema"
)

// ReviewStore is the subset of pkg/store the loader depends on. Tests
// substitute an in-memory fake.
type ReviewStore interface {
	ExistingKeys() (map[string]bool, error)
	InsertReview(r *schema.Review) error
	CountReviews() (int, error)
	ExportParquet(path string) error
}

// Summary aggregates one loader run.
type Summary struct {
	Existing int
	New      int
	Inserted int
	Failed   int
	Total    int
	Exported bool
}

// Loader wires the review directory to a store.
type Loader struct {
	store       ReviewStore
	reviewDir   string
	parquetPath string
}

// New builds a Loader.
func New(store ReviewStore, reviewDir, parquetPath string) *Loader {
	return &Loader{store: store, reviewDir: reviewDir, parquetPath: parquetPath}
}

// Run performs one incremental load. Each missing record is inserted
// atomically: its primary row and child rows commit together or not at all.
// Running twice with no new reviews changes nothing and reports zero.
func (l *Loader) Run() (*Summary, error) {
	existing, err := l.store.ExistingKeys()
	if err != nil {
		return nil, err
	}

	reviews, failedReads := l.scanReviews()
	summary := &Summary{Existing: len(existing), Failed: failedReads}

	// Pure set difference against the authoritative store state.
	var missing []*schema.Review
	for _, r := range reviews {
		if !existing[r.ID()] {
			missing = append(missing, r)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].ID() < missing[j].ID() })
	summary.New = len(missing)

	fmt.Printf("📊 Status:\n")
	fmt.Printf("  - Existing reviews in DB: %d\n", len(existing))
	fmt.Printf("  - New reviews to add: %d\n", len(missing))

	if len(missing) == 0 {
		fmt.Println("\n✓ No new reviews to process. Database is up to date!")
		total, err := l.store.CountReviews()
		if err != nil {
			return nil, err
		}
		summary.Total = total
		return summary, nil
	}

	for _, r := range missing {
		if err := l.store.InsertReview(r); err != nil {
			log.Printf("  ✗ Error adding %s: %v", r.ID(), err)
			summary.Failed++
			continue
		}
		fmt.Printf("  ✓ Added: %s\n", r.ID())
		summary.Inserted++
	}

	// Always a full re-export, never an incremental patch, so the snapshot
	// cannot drift from the store.
	if summary.Inserted > 0 {
		if err := l.store.ExportParquet(l.parquetPath); err != nil {
			return nil, err
		}
		summary.Exported = true
		fmt.Printf("✓ Exported to Parquet: %s\n", l.parquetPath)
	}

	total, err := l.store.CountReviews()
	if err != nil {
		return nil, err
	}
	summary.Total = total
	return summary, nil
}

// scanReviews parses every review file in the directory. Unreadable files
// are reported and skipped; they never abort the run.
func (l *Loader) scanReviews() ([]*schema.Review, int) {
	paths, err := filepath.Glob(filepath.Join(l.reviewDir, "*"+schema.ReviewSuffix))
	if err != nil {
		log.Printf("  ✗ Error scanning %s: %v", l.reviewDir, err)
		return nil, 1
	}

	var reviews []*schema.Review
	failed := 0
	for _, p := range paths {
		r, err := schema.ReadReviewFile(p)
		if err != nil {
			log.Printf("  ✗ Error reading %s: %v", filepath.Base(p), err)
			failed++
			continue
		}
		if err := r.Validate(); err != nil {
			log.Printf("  ✗ Skipping %s: %v", filepath.Base(p), err)
			failed++
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, failed
}

// Print writes the human-readable end-of-run report.
func (s *Summary) Print() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("CONVERSION COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("✓ Successfully added: %d\n", s.Inserted)
	if s.Failed > 0 {
		fmt.Printf("✗ Errors: %d\n", s.Failed)
	}
	fmt.Printf("📊 Total reviews in database: %d\n", s.Total)
}
