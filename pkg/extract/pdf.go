package extract

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// preflightPDF reads the file and verifies it parses as a PDF before any
// network call is spent on it. Returns the raw bytes and the page count.
func preflightPDF(path string) ([]byte, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("not a readable PDF: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, 0, fmt.Errorf("PDF has no pages")
	}
	return data, pages, nil
}
