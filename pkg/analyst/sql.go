package analyst

import (
	"fmt"
	"strings"
)

// ExtractSQL pulls the SQL statement out of a ```sql fenced block in the
// model's response. Returns "" when no fenced query is present.
func ExtractSQL(response string) string {
	lines := strings.Split(response, "\n")
	inSQL := false
	var sqlLines []string

	for _, line := range lines {
		switch {
		case strings.Contains(strings.ToLower(line), "```sql"):
			inSQL = true
		case strings.Contains(line, "```") && inSQL:
			return strings.TrimSpace(strings.Join(sqlLines, "\n"))
		case inSQL:
			sqlLines = append(sqlLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(sqlLines, "\n"))
}

// ValidateReadOnly rejects anything that is not a single SELECT (or
// WITH...SELECT) statement. The store is opened read-only as well; this
// check exists so a bad generation is reported with its text instead of
// failing deeper in the engine.
func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("empty query")
	}

	// A single trailing semicolon is fine; anything after it is not.
	if i := strings.Index(trimmed, ";"); i >= 0 && strings.TrimSpace(trimmed[i+1:]) != "" {
		return fmt.Errorf("multiple statements are not allowed")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT queries are allowed, got: %s", firstWord(trimmed))
	}
	return nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
