package analyst

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// columnMatch is a candidate column with its similarity score.
type columnMatch struct {
	Name  string
	Score float64
}

// SuggestColumns ranks known column names by similarity to name, returning
// the closest few. Used when a generated query fails on an unknown column.
func SuggestColumns(name string, known []string) []string {
	if name == "" || len(known) == 0 {
		return nil
	}

	nameLower := strings.ToLower(name)
	nameTokens := tokenize(nameLower)

	var matches []columnMatch
	for _, col := range known {
		if col == "" {
			continue
		}
		score := columnScore(nameLower, nameTokens, col)
		if score > 0.3 {
			matches = append(matches, columnMatch{Name: col, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})

	limit := 3
	if len(matches) < limit {
		limit = len(matches)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].Name
	}
	return out
}

// columnScore combines global levenshtein similarity with token-wise
// similarity so both near-exact names ("publicaton_year") and keyword
// fragments ("year published") score well.
func columnScore(nameLower string, nameTokens map[string]bool, col string) float64 {
	colLower := strings.ToLower(col)

	if nameLower == colLower {
		return 1.0
	}
	if strings.Contains(colLower, nameLower) {
		return 0.95
	}

	dist := levenshtein.Distance(nameLower, colLower, nil)
	maxLen := float64(len(nameLower))
	if len(colLower) > int(maxLen) {
		maxLen = float64(len(colLower))
	}
	globalScore := 1.0 - float64(dist)/maxLen
	if globalScore < 0 {
		globalScore = 0
	}

	colTokens := tokenize(colLower)
	totalTokenScore := 0.0
	for nt := range nameTokens {
		best := 0.0
		if colTokens[nt] {
			best = 1.0
		} else {
			for ct := range colTokens {
				d := levenshtein.Distance(nt, ct, nil)
				tMax := float64(len(nt))
				if len(ct) > int(tMax) {
					tMax = float64(len(ct))
				}
				if s := 1.0 - float64(d)/tMax; s > best {
					best = s
				}
			}
		}
		totalTokenScore += best
	}
	tokenScore := 0.0
	if len(nameTokens) > 0 {
		tokenScore = totalTokenScore / float64(len(nameTokens))
	}

	if tokenScore > globalScore {
		return tokenScore
	}
	return globalScore
}

// tokenize splits a name into lowercase tokens on non-alphanumerics.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range nonAlnum.Split(strings.ToLower(s), -1) {
		if t != "" {
			tokens[t] = true
		}
	}
	return tokens
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// unknownColumnPattern matches DuckDB binder errors for missing columns,
// capturing the offending name.
var unknownColumnPattern = regexp.MustCompile(`(?i)column(?: with name)? "?([A-Za-z0-9_]+)"? (?:not found|does not exist)`)

// ExtractUnknownColumn pulls the missing column name out of an execution
// error message, or "" when the error is not about an unknown column.
func ExtractUnknownColumn(errMsg string) string {
	m := unknownColumnPattern.FindStringSubmatch(errMsg)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}
