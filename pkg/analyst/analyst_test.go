package analyst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scorchlab/litpipe/pkg/store"
)

func TestExtractSQL(t *testing.T) {
	response := "QUERY:\n```sql\nSELECT title FROM reviews\nWHERE publication_year > 2015\n```\n\nEXPLANATION:\nFilters recent papers."

	got := ExtractSQL(response)
	want := "SELECT title FROM reviews\nWHERE publication_year > 2015"
	assert.Equal(t, want, got)
}

func TestExtractSQLCaseInsensitiveFence(t *testing.T) {
	got := ExtractSQL("```SQL\nSELECT 1\n```")
	assert.Equal(t, "SELECT 1", got)
}

func TestExtractSQLUnterminatedFence(t *testing.T) {
	got := ExtractSQL("```sql\nSELECT COUNT(*) FROM reviews")
	assert.Equal(t, "SELECT COUNT(*) FROM reviews", got)
}

func TestExtractSQLNoFence(t *testing.T) {
	assert.Equal(t, "", ExtractSQL("I need more information to answer that."))
}

func TestValidateReadOnly(t *testing.T) {
	valid := []string{
		"SELECT * FROM reviews",
		"select count(*) from correlations;",
		"WITH recent AS (SELECT * FROM reviews WHERE publication_year > 2020) SELECT * FROM recent",
	}
	for _, q := range valid {
		if err := ValidateReadOnly(q); err != nil {
			t.Errorf("ValidateReadOnly(%q): unexpected error %v", q, err)
		}
	}

	invalid := []string{
		"",
		"DELETE FROM reviews",
		"INSERT INTO reviews VALUES ('x')",
		"DROP TABLE reviews",
		"UPDATE reviews SET title = 'x'",
		"SELECT 1; DELETE FROM reviews",
	}
	for _, q := range invalid {
		if err := ValidateReadOnly(q); err == nil {
			t.Errorf("ValidateReadOnly(%q): expected error", q)
		}
	}
}

func TestFormatResults(t *testing.T) {
	res := &store.QueryResult{
		Columns: []string{"title", "year"},
		Rows: [][]string{
			{"Dust storms and asthma in Arizona", "2019"},
			{"Heat", "2021"},
		},
	}

	out := FormatResults(res)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "title")
	assert.Contains(t, lines[0], "year")
	assert.Contains(t, lines[1], "-+-")
	// Columns stay aligned across rows.
	assert.Equal(t, strings.Index(lines[2], "|"), strings.Index(lines[3], "|"))
}

func TestFormatResultsEmpty(t *testing.T) {
	res := &store.QueryResult{Columns: []string{"title"}}
	assert.Equal(t, "No results found.", FormatResults(res))
}

func TestSuggestColumns(t *testing.T) {
	known := []string{
		"source_pdf_filename", "publication_year", "relevance_rating",
		"paper_summary", "study_design", "spatial_scale",
	}

	got := SuggestColumns("publicaton_year", known)
	if assert.NotEmpty(t, got) {
		assert.Equal(t, "publication_year", got[0])
	}

	got = SuggestColumns("year", known)
	if assert.NotEmpty(t, got) {
		assert.Equal(t, "publication_year", got[0])
	}

	assert.Empty(t, SuggestColumns("", known))
	assert.Empty(t, SuggestColumns("x", nil))
}

func TestExtractUnknownColumn(t *testing.T) {
	cases := []struct {
		msg  string
		want string
	}{
		{`Binder Error: column "pub_year" not found`, "pub_year"},
		{`Binder Error: Referenced column with name pub_year not found`, "pub_year"},
		{`Catalog Error: Table with name missing_table does not exist`, ""},
		{`syntax error at or near "FORM"`, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExtractUnknownColumn(c.msg), "message: %s", c.msg)
	}
}
