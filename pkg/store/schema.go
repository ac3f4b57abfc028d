package store

// DDL for the review database. One primary table keyed by the source PDF
// filename plus five child tables carrying the parent key. The FOREIGN KEY
// declarations document intent; the loader never relies on the engine to
// enforce them. Kept in lockstep with pkg/schema by hand.
const ddl = `
CREATE TABLE IF NOT EXISTS reviews (
    source_pdf_filename VARCHAR PRIMARY KEY,
    extraction_date DATE,
    extractor_agent VARCHAR,
    schema_version VARCHAR,

    focuses_on_arid_semiarid_sw_us_mexico BOOLEAN,
    includes_primary_data_for_region BOOLEAN,

    title VARCHAR,
    citation_apa7 VARCHAR,

    spatial_scale VARCHAR,
    geographic_areas VARCHAR[],
    publication_year INTEGER,
    data_date_earliest VARCHAR,
    data_date_latest VARCHAR,

    setting VARCHAR,
    arid_semiarid_classification VARCHAR,
    study_design VARCHAR,

    relevance_rating VARCHAR,
    relevance_justification VARCHAR,
    paper_summary VARCHAR,
    conclusions_summary VARCHAR,

    research_limitations VARCHAR,
    identified_gaps VARCHAR
);

CREATE TABLE IF NOT EXISTS health_outcome_variables (
    source_pdf_filename VARCHAR,
    variable VARCHAR,
    spatial_resolution VARCHAR,
    data_source VARCHAR,
    FOREIGN KEY (source_pdf_filename) REFERENCES reviews(source_pdf_filename)
);

CREATE TABLE IF NOT EXISTS climate_weather_variables (
    source_pdf_filename VARCHAR,
    variable VARCHAR,
    spatial_resolution VARCHAR,
    data_source VARCHAR,
    FOREIGN KEY (source_pdf_filename) REFERENCES reviews(source_pdf_filename)
);

CREATE TABLE IF NOT EXISTS cofactor_variables (
    source_pdf_filename VARCHAR,
    variable VARCHAR,
    spatial_resolution VARCHAR,
    data_source VARCHAR,
    FOREIGN KEY (source_pdf_filename) REFERENCES reviews(source_pdf_filename)
);

CREATE TABLE IF NOT EXISTS vulnerable_populations (
    source_pdf_filename VARCHAR,
    population_group VARCHAR,
    vulnerability_reasons VARCHAR,
    FOREIGN KEY (source_pdf_filename) REFERENCES reviews(source_pdf_filename)
);

CREATE TABLE IF NOT EXISTS correlations (
    source_pdf_filename VARCHAR,
    variable VARCHAR,
    effect_size_correlation VARCHAR,
    significance VARCHAR,
    confidence_interval VARCHAR,
    FOREIGN KEY (source_pdf_filename) REFERENCES reviews(source_pdf_filename)
);
`

// ChildTables lists the child tables joined to reviews on the document key.
var ChildTables = []string{
	"health_outcome_variables",
	"climate_weather_variables",
	"cofactor_variables",
	"vulnerable_populations",
	"correlations",
}
