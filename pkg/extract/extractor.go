// Package extract turns source PDFs into structured review JSON files by
// asking a hosted model to fill the extraction schema, one independent
// request per document.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	commonerrors "github.com/scorchlab/litpipe/pkg/common/errors"
	"github.com/scorchlab/litpipe/pkg/prompt"
	"github.com/scorchlab/litpipe/pkg/schema"
)

//go:embed prompts/extract_review.prompt
var extractPromptText []byte

// AgentName identifies this tool in the extraction_metadata block.
const AgentName = "litpipe-pdf-analyzer"

// batchSize bounds how many documents are in flight at once. It exists to
// bound memory and concurrent request load, not for correctness.
const batchSize = 4

// unitTimeout is the best-effort cap on one document's model call.
const unitTimeout = 5 * time.Minute

// Result reports the outcome of one processed PDF.
type Result struct {
	PDF    string
	Pages  int
	Output string
	Err    error
}

// Summary aggregates a batch run.
type Summary struct {
	RunID     string
	Processed int
	Succeeded int
	Failed    int
	Results   []Result
}

// Extractor coordinates one batch run over the pdfs/ and reviews/ folders.
type Extractor struct {
	client    *GeminiClient
	pdfDir    string
	reviewDir string
	tmpl      *prompt.Prompt
}

// New builds an Extractor. The client may be nil only in tests that never
// reach the network.
func New(client *GeminiClient, pdfDir, reviewDir string) (*Extractor, error) {
	tmpl, err := prompt.Parse(extractPromptText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction prompt: %w", err)
	}
	return &Extractor{
		client:    client,
		pdfDir:    pdfDir,
		reviewDir: reviewDir,
		tmpl:      tmpl,
	}, nil
}

// FindUnprocessed returns the PDFs that have no corresponding review file, a
// pure set difference computed fresh against the file system. The file system
// is the source of truth; nothing is cached between runs.
func FindUnprocessed(pdfDir, reviewDir string) ([]string, error) {
	pdfs, err := filepath.Glob(filepath.Join(pdfDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", pdfDir, err)
	}

	produced := make(map[string]bool)
	reviews, err := filepath.Glob(filepath.Join(reviewDir, "*"+schema.ReviewSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", reviewDir, err)
	}
	for _, r := range reviews {
		if stem := schema.StemFromReviewFile(r); stem != "" {
			produced[stem] = true
		}
	}

	var unprocessed []string
	for _, p := range pdfs {
		if !produced[schema.Stem(p)] {
			unprocessed = append(unprocessed, p)
		}
	}
	sort.Strings(unprocessed)
	return unprocessed, nil
}

// Run processes every unprocessed PDF, at most batchSize at a time. A failed
// unit is reported and skipped; the batch always continues. Rerunning the
// stage is the retry mechanism and is safe by the skip rule.
func (e *Extractor) Run(ctx context.Context) (*Summary, error) {
	unprocessed, err := FindUnprocessed(e.pdfDir, e.reviewDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: uuid.NewString()}
	if len(unprocessed) == 0 {
		fmt.Println("✓ No unprocessed PDFs found. All PDFs have reviews!")
		return summary, nil
	}

	if err := os.MkdirAll(e.reviewDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create review directory: %w", err)
	}

	fmt.Printf("Found %d unprocessed PDF(s):\n", len(unprocessed))
	for _, p := range unprocessed {
		fmt.Printf("  - %s\n", filepath.Base(p))
	}

	results := make([]Result, len(unprocessed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)

	for i, pdfPath := range unprocessed {
		g.Go(func() error {
			results[i] = e.processOne(gctx, pdfPath)
			// Unit failures never abort the batch.
			return nil
		})
	}
	// Only a cancelled context surfaces here.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		summary.Processed++
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	summary.Results = results
	return summary, nil
}

// processOne is the atomic unit of work: one PDF either yields one complete
// review file or fails leaving no partial output.
func (e *Extractor) processOne(ctx context.Context, pdfPath string) Result {
	name := filepath.Base(pdfPath)
	res := Result{PDF: name}

	fmt.Printf("📄 Processing: %s\n", name)

	data, pages, err := preflightPDF(pdfPath)
	if err != nil {
		res.Err = commonerrors.NewUnitError(name, err)
		log.Printf("  ✗ %s: %v", name, err)
		return res
	}
	res.Pages = pages

	promptText, err := e.tmpl.Execute(map[string]string{
		"Date":          time.Now().Format("2006-01-02"),
		"Agent":         AgentName,
		"SourcePDF":     name,
		"SchemaVersion": schema.SchemaVersion,
	})
	if err != nil {
		res.Err = commonerrors.NewUnitError(name, err)
		log.Printf("  ✗ %s: %v", name, err)
		return res
	}

	unitCtx, cancel := context.WithTimeout(ctx, unitTimeout)
	defer cancel()

	raw, err := e.client.ExtractFromPDF(unitCtx, data, promptText)
	if err != nil {
		res.Err = commonerrors.NewUnitError(name, err)
		log.Printf("  ✗ %s: %v", name, err)
		return res
	}

	review, err := parseReview(raw)
	if err != nil {
		// Preserve the raw output for the operator before reporting failure.
		debugPath := filepath.Join(e.reviewDir, schema.DebugFileName(name))
		if werr := os.WriteFile(debugPath, []byte(raw), 0644); werr != nil {
			log.Printf("  ⚠ %s: failed to write diagnostic file: %v", name, werr)
		}
		res.Err = commonerrors.NewUnitError(name, err)
		log.Printf("  ✗ %s: %v (raw response saved)", name, err)
		return res
	}

	// The model occasionally echoes a different filename; the source PDF is
	// authoritative for the identifier.
	review.ExtractionMetadata.SourcePDFFilename = name
	if review.ExtractionMetadata.SchemaVersion == "" {
		review.ExtractionMetadata.SchemaVersion = schema.SchemaVersion
	}

	outPath := filepath.Join(e.reviewDir, schema.ReviewFileName(name))
	if err := schema.WriteReviewFile(outPath, review); err != nil {
		res.Err = commonerrors.NewUnitError(name, err)
		log.Printf("  ✗ %s: %v", name, err)
		return res
	}

	res.Output = outPath
	fmt.Printf("  ✓ Success: %s (%d pages)\n", filepath.Base(outPath), pages)
	return res
}

// parseReview finds the JSON object in the model output and decodes it.
func parseReview(raw string) (*schema.Review, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found in response", commonerrors.ErrMalformedOutput)
	}

	var r schema.Review
	if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", commonerrors.ErrMalformedOutput, err)
	}
	return &r, nil
}

// Print writes the human-readable end-of-run report.
func (s *Summary) Print() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("PROCESSING COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run ID: %s\n", s.RunID)
	fmt.Printf("Total PDFs: %d\n", s.Processed)
	fmt.Printf("  ✓ Success: %d\n", s.Succeeded)
	fmt.Printf("  ✗ Errors:  %d\n", s.Failed)

	if s.Failed > 0 {
		fmt.Println("\nFailed PDFs:")
		for _, r := range s.Results {
			if r.Err != nil {
				fmt.Printf("  - %s: %v\n", r.PDF, r.Err)
			}
		}
	}
}
