package loader

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorchlab/litpipe/pkg/schema"
)

// memStore is an in-memory ReviewStore used to exercise the loader's
// set-difference and reporting logic without a database file.
type memStore struct {
	reviews       map[string]*schema.Review
	failOn        map[string]bool
	exportedRows  int
	exportedCalls int
}

func newMemStore() *memStore {
	return &memStore{reviews: make(map[string]*schema.Review), failOn: make(map[string]bool)}
}

func (m *memStore) ExistingKeys() (map[string]bool, error) {
	keys := make(map[string]bool, len(m.reviews))
	for k := range m.reviews {
		keys[k] = true
	}
	return keys, nil
}

func (m *memStore) InsertReview(r *schema.Review) error {
	if m.failOn[r.ID()] {
		return fmt.Errorf("injected insert failure for %s", r.ID())
	}
	if _, ok := m.reviews[r.ID()]; ok {
		return fmt.Errorf("duplicate key %s", r.ID())
	}
	m.reviews[r.ID()] = r
	return nil
}

func (m *memStore) CountReviews() (int, error) {
	return len(m.reviews), nil
}

func (m *memStore) ExportParquet(path string) error {
	m.exportedRows = len(m.reviews)
	m.exportedCalls++
	return nil
}

func writeReview(t *testing.T, dir, pdfName string) {
	t.Helper()
	r := &schema.Review{}
	r.ExtractionMetadata.SourcePDFFilename = pdfName
	r.ExtractionMetadata.SchemaVersion = schema.SchemaVersion
	path := filepath.Join(dir, schema.ReviewFileName(pdfName))
	require.NoError(t, schema.WriteReviewFile(path, r))
}

func TestLoaderInsertsMissing(t *testing.T) {
	dir := t.TempDir()
	writeReview(t, dir, "a.pdf")
	writeReview(t, dir, "b.pdf")
	writeReview(t, dir, "c.pdf")

	store := newMemStore()
	// "a" is already in the store; exactly the other two must be inserted.
	store.reviews["a.pdf"] = &schema.Review{}

	summary, err := New(store, dir, "out.parquet").Run()
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Existing)
	assert.Equal(t, 2, summary.New)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Total)
	assert.True(t, summary.Exported)
}

func TestLoaderIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeReview(t, dir, "a.pdf")
	writeReview(t, dir, "b.pdf")

	store := newMemStore()
	l := New(store, dir, "out.parquet")

	first, err := l.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	// Second run with no new records: nothing changes, zero reported.
	second, err := l.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.New)
	assert.Equal(t, 2, second.Total)
	assert.False(t, second.Exported, "no export when nothing was inserted")
	assert.Equal(t, 1, store.exportedCalls)
}

func TestLoaderSnapshotMatchesStore(t *testing.T) {
	dir := t.TempDir()
	writeReview(t, dir, "a.pdf")
	writeReview(t, dir, "b.pdf")
	writeReview(t, dir, "c.pdf")

	store := newMemStore()
	summary, err := New(store, dir, "out.parquet").Run()
	require.NoError(t, err)

	// The snapshot is always a full re-export of the primary table.
	assert.Equal(t, summary.Total, store.exportedRows)
}

func TestLoaderContinuesPastFailedRecord(t *testing.T) {
	dir := t.TempDir()
	writeReview(t, dir, "a.pdf")
	writeReview(t, dir, "b.pdf")
	writeReview(t, dir, "c.pdf")

	store := newMemStore()
	store.failOn["b.pdf"] = true

	summary, err := New(store, dir, "out.parquet").Run()
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Total)
	// The failed record stays missing and is retried on the next run.
	store.failOn["b.pdf"] = false
	retry, err := New(store, dir, "out.parquet").Run()
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Inserted)
	assert.Equal(t, 3, retry.Total)
}

func TestLoaderSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeReview(t, dir, "a.pdf")
	// Parses but carries no identifier: reported, skipped.
	require.NoError(t,
		schema.WriteReviewFile(filepath.Join(dir, "anon_review.json"), &schema.Review{}))

	store := newMemStore()
	summary, err := New(store, dir, "out.parquet").Run()
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Failed)
}

func TestLoaderEmptyDirectory(t *testing.T) {
	store := newMemStore()
	summary, err := New(store, t.TempDir(), "out.parquet").Run()
	require.NoError(t, err)

	assert.Equal(t, 0, summary.New)
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 0, summary.Total)
}
