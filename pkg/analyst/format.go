package analyst

import (
	"fmt"
	"strings"

	"github.com/scorchlab/litpipe/pkg/store"
)

// FormatResults renders query results as an aligned text table.
func FormatResults(res *store.QueryResult) string {
	if len(res.Rows) == 0 {
		return "No results found."
	}

	widths := make([]int, len(res.Columns))
	for i, col := range res.Columns {
		widths[i] = len(col)
	}
	for _, row := range res.Rows {
		for i, val := range row {
			if len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	var sb strings.Builder

	for i, col := range res.Columns {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(pad(col, widths[i]))
	}
	sb.WriteString("\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	sb.WriteString(strings.Join(seps, "-+-"))
	sb.WriteString("\n")

	for _, row := range res.Rows {
		for i, val := range row {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(pad(val, widths[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func pad(s string, w int) string {
	return fmt.Sprintf("%-*s", w, s)
}
