// Package schema defines the structured review record produced by the
// extraction stage. The shape mirrors the external SCORCH extraction schema
// (version 1.1); the database layout in pkg/store is kept in lockstep with it
// by hand.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SchemaVersion is the extraction schema version stamped into every review.
const SchemaVersion = "1.1"

// ReviewSuffix is appended to a PDF stem to form the review file name.
const ReviewSuffix = "_review.json"

// DebugSuffix is appended to a PDF stem for the raw-response diagnostic file.
const DebugSuffix = "_debug.txt"

// ExtractionMetadata records provenance for one review.
type ExtractionMetadata struct {
	ExtractionDate    string `json:"extraction_date"`
	ExtractorAgent    string `json:"extractor_agent"`
	SourcePDFFilename string `json:"source_pdf_filename"`
	SchemaVersion     string `json:"schema_version"`
}

// Screening holds the two region-screening booleans (Q1-2).
type Screening struct {
	FocusesOnAridSemiaridSWUSMexico bool `json:"focuses_on_arid_semiarid_sw_us_mexico"`
	IncludesPrimaryDataForRegion    bool `json:"includes_primary_data_for_region"`
}

// Metadata holds bibliographic and spatial/temporal fields (Q3-9).
type Metadata struct {
	Title            string   `json:"title"`
	CitationAPA7     string   `json:"citation_apa7"`
	SpatialScale     string   `json:"spatial_scale"`
	GeographicAreas  []string `json:"geographic_areas"`
	PublicationYear  int      `json:"publication_year"`
	DataDateEarliest string   `json:"data_date_earliest"`
	DataDateLatest   string   `json:"data_date_latest"`
}

// StudyCharacteristics holds setting and design fields (Q10-12).
type StudyCharacteristics struct {
	Setting                    string `json:"setting"`
	AridSemiaridClassification string `json:"arid_semiarid_classification"`
	StudyDesign                string `json:"study_design"`
}

// DataVariable is one measured variable with its resolution and provenance.
// The same tuple shape is used for health outcomes, climate/weather variables
// and cofactors.
type DataVariable struct {
	Variable          string `json:"variable"`
	SpatialResolution string `json:"spatial_resolution"`
	DataSource        string `json:"data_source"`
}

// DataTables groups the three repeated variable lists.
type DataTables struct {
	HealthOutcomeVariables  []DataVariable `json:"health_outcome_variables"`
	ClimateWeatherVariables []DataVariable `json:"climate_weather_variables"`
	CofactorVariables       []DataVariable `json:"cofactor_variables"`
}

// Population is one vulnerable population group identified by the paper.
type Population struct {
	PopulationGroup      string `json:"population_group"`
	VulnerabilityReasons string `json:"vulnerability_reasons"`
}

// VulnerablePopulations wraps the populations list.
type VulnerablePopulations struct {
	PopulationsIdentified []Population `json:"populations_identified"`
}

// Correlation is one reported statistical association.
type Correlation struct {
	Variable              string `json:"variable"`
	EffectSizeCorrelation string `json:"effect_size_correlation"`
	Significance          string `json:"significance"`
	ConfidenceInterval    string `json:"confidence_interval"`
}

// StatisticalFindings wraps the correlations list.
type StatisticalFindings struct {
	CorrelationsReported []Correlation `json:"correlations_reported"`
}

// OverallAssessment holds the reviewer-style summary fields (Q40-46).
type OverallAssessment struct {
	RelevanceRating        string `json:"relevance_rating"`
	RelevanceJustification string `json:"relevance_justification"`
	PaperSummary           string `json:"paper_summary"`
	ConclusionsSummary     string `json:"conclusions_summary"`
}

// Review is the complete structured record for one source PDF.
type Review struct {
	ExtractionMetadata    ExtractionMetadata    `json:"extraction_metadata"`
	Screening             Screening             `json:"screening"`
	Metadata              Metadata              `json:"metadata"`
	StudyCharacteristics  StudyCharacteristics  `json:"study_characteristics"`
	DataTables            DataTables            `json:"data_tables"`
	VulnerablePopulations VulnerablePopulations `json:"vulnerable_populations"`
	StatisticalFindings   StatisticalFindings   `json:"statistical_findings"`
	OverallAssessment     OverallAssessment     `json:"overall_assessment"`
	ResearchLimitations   string                `json:"research_limitations"`
	IdentifiedGaps        string                `json:"identified_gaps"`
}

// ID returns the document identifier: the original PDF filename recorded in
// the metadata block. It is the primary key in the store.
func (r *Review) ID() string {
	return r.ExtractionMetadata.SourcePDFFilename
}

// Validate checks the minimum structure required to key and load a review.
// Everything beyond the identifier tolerates absence (NULL columns).
func (r *Review) Validate() error {
	if strings.TrimSpace(r.ExtractionMetadata.SourcePDFFilename) == "" {
		return fmt.Errorf("review missing extraction_metadata.source_pdf_filename")
	}
	return nil
}

// Stem returns the PDF filename without its extension.
func Stem(pdfName string) string {
	return strings.TrimSuffix(filepath.Base(pdfName), filepath.Ext(pdfName))
}

// ReviewFileName derives the review file name for a source PDF name.
// The derivation is deterministic so reruns find prior output.
func ReviewFileName(pdfName string) string {
	return Stem(pdfName) + ReviewSuffix
}

// DebugFileName derives the diagnostic file name for a source PDF name.
func DebugFileName(pdfName string) string {
	return Stem(pdfName) + DebugSuffix
}

// StemFromReviewFile reverses ReviewFileName, returning the PDF stem for a
// review file name, or "" if the name does not carry the review suffix.
func StemFromReviewFile(name string) string {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ReviewSuffix) {
		return ""
	}
	return strings.TrimSuffix(base, ReviewSuffix)
}

// ReadReviewFile parses one review JSON file from disk.
func ReadReviewFile(path string) (*Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review file: %w", err)
	}
	var r Review
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse review file %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// WriteReviewFile writes a review as indented JSON, matching the layout the
// extraction stage has always produced.
func WriteReviewFile(path string, r *Review) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write review file: %w", err)
	}
	return nil
}
