// Package store persists review records in a single-file DuckDB database and
// republishes the primary table as a Parquet snapshot.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	commonerrors "github.com/scorchlab/litpipe/pkg/common/errors"
	"github.com/scorchlab/litpipe/pkg/schema"
)

// Store wraps a DuckDB database holding the normalized review tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. The caller owns the returned store and must Close it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %v", commonerrors.ErrStoreAccess, err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database %s: %v", commonerrors.ErrStoreAccess, path, err)
	}

	// The pipeline never opens more than one writer session; a single
	// connection also keeps transactions on one session.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %v", commonerrors.ErrStoreAccess, err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing database in read-only mode. Used by the
// query assistant so no mutation can reach the file.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: database not found at %s (run the loader first)", commonerrors.ErrStoreAccess, path)
	}

	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database %s read-only: %v", commonerrors.ErrStoreAccess, path, err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ExistingKeys returns the set of document identifiers already present in
// the primary table. Computed fresh on every call; the database is the only
// source of truth.
func (s *Store) ExistingKeys() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT source_pdf_filename FROM reviews")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan existing keys: %v", commonerrors.ErrStoreAccess, err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: failed to scan key: %v", commonerrors.ErrStoreAccess, err)
		}
		keys[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: key scan failed: %v", commonerrors.ErrStoreAccess, err)
	}
	return keys, nil
}

// execer is satisfied by both *sql.Tx and *sql.DB. Insert helpers run
// against it so tests can interpose failures mid-record.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// InsertReview inserts one review's primary row and all of its child rows as
// a single transaction. If any part fails, the transaction is rolled back and
// no rows from this record remain.
func (s *Store) InsertReview(r *schema.Review) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", commonerrors.ErrStoreAccess, err)
	}

	if err := insertReviewRows(tx, r); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit %s: %v", commonerrors.ErrStoreAccess, r.ID(), err)
	}
	return nil
}

// insertReviewRows writes the primary row and every child row through ex.
func insertReviewRows(ex execer, r *schema.Review) error {
	// geographic_areas is a VARCHAR[] column; the list is passed as one
	// unit-separated parameter and split server-side to keep the binding
	// driver-agnostic. NULLIF turns an empty list into NULL.
	const insertReview = `
		INSERT INTO reviews (
			source_pdf_filename, extraction_date, extractor_agent, schema_version,
			focuses_on_arid_semiarid_sw_us_mexico, includes_primary_data_for_region,
			title, citation_apa7,
			spatial_scale, geographic_areas, publication_year,
			data_date_earliest, data_date_latest,
			setting, arid_semiarid_classification, study_design,
			relevance_rating, relevance_justification, paper_summary, conclusions_summary,
			research_limitations, identified_gaps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, string_split(NULLIF(?, ''), chr(31)), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	m := r.ExtractionMetadata
	if _, err := ex.Exec(insertReview,
		r.ID(),
		nullable(m.ExtractionDate),
		nullable(m.ExtractorAgent),
		nullable(m.SchemaVersion),
		r.Screening.FocusesOnAridSemiaridSWUSMexico,
		r.Screening.IncludesPrimaryDataForRegion,
		nullable(r.Metadata.Title),
		nullable(r.Metadata.CitationAPA7),
		nullable(r.Metadata.SpatialScale),
		strings.Join(r.Metadata.GeographicAreas, "\x1f"),
		nullableInt(r.Metadata.PublicationYear),
		nullable(r.Metadata.DataDateEarliest),
		nullable(r.Metadata.DataDateLatest),
		nullable(r.StudyCharacteristics.Setting),
		nullable(r.StudyCharacteristics.AridSemiaridClassification),
		nullable(r.StudyCharacteristics.StudyDesign),
		nullable(r.OverallAssessment.RelevanceRating),
		nullable(r.OverallAssessment.RelevanceJustification),
		nullable(r.OverallAssessment.PaperSummary),
		nullable(r.OverallAssessment.ConclusionsSummary),
		nullable(r.ResearchLimitations),
		nullable(r.IdentifiedGaps),
	); err != nil {
		return fmt.Errorf("%w: failed to insert review %s: %v", commonerrors.ErrStoreAccess, r.ID(), err)
	}

	if err := insertVariables(ex, "health_outcome_variables", r.ID(), r.DataTables.HealthOutcomeVariables); err != nil {
		return err
	}
	if err := insertVariables(ex, "climate_weather_variables", r.ID(), r.DataTables.ClimateWeatherVariables); err != nil {
		return err
	}
	if err := insertVariables(ex, "cofactor_variables", r.ID(), r.DataTables.CofactorVariables); err != nil {
		return err
	}

	for _, p := range r.VulnerablePopulations.PopulationsIdentified {
		if _, err := ex.Exec(
			"INSERT INTO vulnerable_populations VALUES (?, ?, ?)",
			r.ID(), nullable(p.PopulationGroup), nullable(p.VulnerabilityReasons),
		); err != nil {
			return fmt.Errorf("%w: failed to insert vulnerable population for %s: %v", commonerrors.ErrStoreAccess, r.ID(), err)
		}
	}

	for _, c := range r.StatisticalFindings.CorrelationsReported {
		if _, err := ex.Exec(
			"INSERT INTO correlations VALUES (?, ?, ?, ?, ?)",
			r.ID(), nullable(c.Variable), nullable(c.EffectSizeCorrelation),
			nullable(c.Significance), nullable(c.ConfidenceInterval),
		); err != nil {
			return fmt.Errorf("%w: failed to insert correlation for %s: %v", commonerrors.ErrStoreAccess, r.ID(), err)
		}
	}

	return nil
}

func insertVariables(ex execer, table, id string, vars []schema.DataVariable) error {
	for _, v := range vars {
		if _, err := ex.Exec(
			fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?)", table),
			id, nullable(v.Variable), nullable(v.SpatialResolution), nullable(v.DataSource),
		); err != nil {
			return fmt.Errorf("%w: failed to insert into %s for %s: %v", commonerrors.ErrStoreAccess, table, id, err)
		}
	}
	return nil
}

// CountReviews returns the primary table row count.
func (s *Store) CountReviews() (int, error) {
	return s.countTable("reviews")
}

// CountChildRows returns the row count of one child table.
func (s *Store) CountChildRows(table string) (int, error) {
	return s.countTable(table)
}

func (s *Store) countTable(table string) (int, error) {
	var n int
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %v", commonerrors.ErrStoreAccess, table, err)
	}
	return n, nil
}

// ExportParquet re-exports the full primary table as a Parquet file. Always a
// complete export so the snapshot can never drift from the store.
func (s *Store) ExportParquet(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: failed to create snapshot directory: %v", commonerrors.ErrStoreAccess, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("COPY reviews TO '%s' (FORMAT PARQUET)", escapePath(path))); err != nil {
		return fmt.Errorf("%w: parquet export failed: %v", commonerrors.ErrStoreAccess, err)
	}
	return nil
}

// nullable maps "" to SQL NULL so absent schema answers stay NULL columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps 0 to SQL NULL; the schema has no meaningful zero year.
func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// escapePath makes a file path safe inside a single-quoted SQL literal.
// COPY targets cannot be bound as parameters.
func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
