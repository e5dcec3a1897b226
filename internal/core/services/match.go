package services

import (
	"strings"
	"unicode"
)

const (
	titleWeight        = 0.7
	artistWeight       = 0.3
	minMatchConfidence = 0.6
)

var featTokens = map[string]struct{}{
	"feat":      {},
	"feat.":     {},
	"featuring": {},
	"ft":        {},
	"ft.":       {},
}

// normalizeTrackString prepares a title or artist for search and comparison:
// lowercase, parenthetical comments removed, feat./ft./& separators unified,
// whitespace collapsed.
func normalizeTrackString(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	lowered := strings.ToLower(strings.TrimSpace(input))
	stripped := stripBracketedSegments(lowered)

	tokens := strings.Fields(stripped)
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := featTokens[token]; drop {
			continue
		}
		if token == "&" {
			continue
		}
		cleaned = append(cleaned, token)
	}

	return strings.Join(cleaned, " ")
}

// stripPunctuation keeps only letters, digits, and spaces.
func stripPunctuation(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(out.String())
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// matchScore rates how well a search result matches the requested candidate.
// The boolean reports whether the score clears the acceptance threshold.
func matchScore(wantTitle, wantArtist, gotTitle, gotArtist string) (float64, bool) {
	a := stripPunctuation(normalizeTrackString(wantTitle))
	b := stripPunctuation(normalizeTrackString(gotTitle))
	titleSim := similarity(a, b)

	c := stripPunctuation(normalizeTrackString(wantArtist))
	d := stripPunctuation(normalizeTrackString(gotArtist))
	artistSim := similarity(c, d)

	score := titleWeight*titleSim + artistWeight*artistSim
	return score, score > minMatchConfidence
}

// similarity is 1 minus the normalized Levenshtein distance.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
