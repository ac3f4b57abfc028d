package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorchlab/litpipe/pkg/extract"
	"github.com/scorchlab/litpipe/pkg/schema"
	"github.com/scorchlab/litpipe/pkg/store"
)

// TestIncrementalPipeline walks the extract-then-load contract end to end:
// three source PDFs, one ("A") already processed and loaded. The extract
// stage must pick up exactly the two missing documents and the loader must
// add exactly two rows, for a final total of three.
func TestIncrementalPipeline(t *testing.T) {
	pdfDir := t.TempDir()
	reviewDir := t.TempDir()
	dbDir := t.TempDir()

	for _, name := range []string{"A.pdf", "B.pdf", "C.pdf"} {
		require.NoError(t,
			writeDummyPDF(filepath.Join(pdfDir, name)))
	}
	// "A" has a produced record and is already in the store.
	writeReview(t, reviewDir, "A.pdf")

	s, err := store.Open(filepath.Join(dbDir, "reviews.duckdb"))
	require.NoError(t, err)
	defer s.Close()

	aReview, err := schema.ReadReviewFile(filepath.Join(reviewDir, schema.ReviewFileName("A.pdf")))
	require.NoError(t, err)
	require.NoError(t, s.InsertReview(aReview))

	// Extract stage: the skip rule leaves exactly B and C to process.
	todo, err := extract.FindUnprocessed(pdfDir, reviewDir)
	require.NoError(t, err)
	require.Len(t, todo, 2)

	// Stand in for the model call: produce the two missing records the way
	// a successful unit does.
	for _, pdfPath := range todo {
		writeReview(t, reviewDir, filepath.Base(pdfPath))
	}

	parquet := filepath.Join(dbDir, "reviews.parquet")
	summary, err := New(s, reviewDir, parquet).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Existing)
	assert.Equal(t, 2, summary.New)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 3, summary.Total)

	// Snapshot row count equals the primary table row count exactly.
	res, err := s.Execute("SELECT COUNT(*) FROM read_parquet('" + parquet + "')")
	require.NoError(t, err)
	assert.Equal(t, "3", res.Rows[0][0])

	// A repeat of both stages is a no-op.
	todo, err = extract.FindUnprocessed(pdfDir, reviewDir)
	require.NoError(t, err)
	assert.Empty(t, todo)

	again, err := New(s, reviewDir, parquet).Run()
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 3, again.Total)
}

// writeDummyPDF creates a file with a .pdf name; the set-difference works on
// names alone, so content is irrelevant here.
func writeDummyPDF(path string) error {
	return os.WriteFile(path, []byte("%PDF-1.4 test fixture"), 0644)
}
