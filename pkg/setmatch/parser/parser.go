// Package parser turns free-text pasted setlists into structured sets of
// song candidates. It is stateless; every call works only on its input.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"setmatch/pkg/models"
)

// Inputs above these thresholds get an advisory complexity flag. Parsing
// always completes regardless.
const (
	highComplexityLines  = 50
	minLinesForRateCheck = 10
	minParseSuccessRate  = 0.7
)

// Parse confidence assigned per separator style. A dash or tab split is
// unambiguous, a comma split less so, a bare title least.
const (
	confidenceDelimited = 0.9
	confidenceComma     = 0.7
	confidenceTitleOnly = 0.5
)

var (
	leadingNumberRe = regexp.MustCompile(`^\d+\.?\s*`)
	dividerRe       = regexp.MustCompile(`^[-=_#]{3,}$`)
	setTokenRe      = regexp.MustCompile(`(?i)\bset\b`)
	setDigitRe      = regexp.MustCompile(`\d+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)

	// Punctuation is replaced by spaces; parentheses survive in both
	// fields, apostrophes only in titles ("don't stop").
	titlePunctRe  = regexp.MustCompile(`[^\p{L}\p{N}\s()']`)
	artistPunctRe = regexp.MustCompile(`[^\p{L}\p{N}\s()]`)

	// Metadata column detectors for tab-separated (spreadsheet) pastes.
	pureNumberRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
	timeTokenRe  = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	dateTokenRe  = regexp.MustCompile(`^\d{1,4}[/.-]\d{1,2}([/.-]\d{1,4})?$`)
	monthDayRe   = regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}`)
)

var setWordNumbers = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
	"fifth":  5,
}

// ParseSongList splits a pasted setlist into sets of candidates. The result
// always contains at least one set, and never an error: unparseable lines
// are dropped and only counted toward the complexity advisory.
func ParseSongList(input string) models.ParseResult {
	lines := strings.Split(input, "\n")

	var sets []models.Set
	current := models.Set{Name: "Set 1"}
	totalLines := 0
	parsedLines := 0
	nonBlank := 0

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		nonBlank++

		if isSetSeparator(line) {
			if len(current.Songs) > 0 {
				sets = append(sets, current)
			}
			current = models.Set{Name: extractSetName(line, len(sets)+1)}
			continue
		}

		totalLines++
		if cand := ParseSongLine(line, i+1); cand != nil {
			current.Songs = append(current.Songs, *cand)
			parsedLines++
		}
	}

	if len(current.Songs) > 0 {
		sets = append(sets, current)
	}
	if len(sets) == 0 {
		sets = []models.Set{{Name: "Set 1", Songs: []models.Candidate{}}}
	}

	complexity := models.ComplexityLow
	message := ""
	switch {
	case nonBlank > highComplexityLines:
		complexity = models.ComplexityHigh
		message = fmt.Sprintf("That's a long list (%d lines). Consider splitting it into smaller chunks if the results look off.", nonBlank)
	case totalLines > minLinesForRateCheck && float64(parsedLines)/float64(totalLines) < minParseSuccessRate:
		complexity = models.ComplexityMedium
		message = fmt.Sprintf("Only %d of %d lines looked like songs. Simplifying the format (one \"Title - Artist\" per line) will improve matching.", parsedLines, totalLines)
	}

	return models.ParseResult{
		Sets:        sets,
		Complexity:  complexity,
		Message:     message,
		TotalLines:  totalLines,
		ParsedLines: parsedLines,
	}
}

// isSetSeparator reports whether a line marks a set boundary rather than a
// song. A run of 3+ divider characters or any line carrying the word "set"
// ("Set 2", "2nd set", "second set") qualifies.
func isSetSeparator(line string) bool {
	if dividerRe.MatchString(line) {
		return true
	}
	return setTokenRe.MatchString(line)
}

// extractSetName pulls a set number out of a separator line, falling back
// to the positional count when the line names no number (divider runs,
// bare "Set").
func extractSetName(line string, position int) string {
	if m := setDigitRe.FindString(line); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			return fmt.Sprintf("Set %d", n)
		}
	}
	lower := strings.ToLower(line)
	for word, n := range setWordNumbers {
		if strings.Contains(lower, word) {
			return fmt.Sprintf("Set %d", n)
		}
	}
	return fmt.Sprintf("Set %d", position)
}

// ParseSongLine extracts a candidate from one song line. Returns nil only
// when nothing usable remains after cleanup.
func ParseSongLine(line string, lineNumber int) *models.Candidate {
	original := line
	cleaned := strings.TrimSpace(leadingNumberRe.ReplaceAllString(strings.TrimSpace(line), ""))
	if cleaned == "" {
		return nil
	}

	var title, artist string
	confidence := confidenceTitleOnly

	if strings.Contains(cleaned, "\t") {
		title, artist = parseTabLine(cleaned)
		confidence = confidenceDelimited
	} else if parts := strings.Split(cleaned, " - "); len(parts) == 2 {
		title, artist = parts[0], parts[1]
		confidence = confidenceDelimited
	} else if parts := strings.Split(cleaned, ","); len(parts) == 2 {
		title, artist = parts[0], parts[1]
		confidence = confidenceComma
	} else {
		title = cleaned
	}

	title = NormalizeTitle(title)
	artist = NormalizeArtist(artist)
	if title == "" {
		return nil
	}
	if artist == "" {
		confidence = confidenceTitleOnly
	}

	return &models.Candidate{
		LineNumber:   lineNumber,
		OriginalLine: original,
		Title:        title,
		Artist:       artist,
		Confidence:   confidence,
	}
}

// parseTabLine handles spreadsheet-style pastes: column 0 is the title,
// and the first later column that is not a date, time, number, or other
// generic metadata becomes the artist.
func parseTabLine(line string) (title, artist string) {
	cols := strings.Split(line, "\t")
	title = strings.Trim(strings.TrimSpace(cols[0]), `"'`)
	for _, col := range cols[1:] {
		col = strings.TrimSpace(col)
		if col == "" || isMetadataColumn(col) {
			continue
		}
		artist = col
		break
	}
	return title, artist
}

func isMetadataColumn(col string) bool {
	if len(col) > 50 {
		return true
	}
	return pureNumberRe.MatchString(col) ||
		timeTokenRe.MatchString(col) ||
		dateTokenRe.MatchString(col) ||
		monthDayRe.MatchString(col)
}

// NormalizeTitle lowercases a title and strips punctuation, keeping
// parentheses and apostrophes.
func NormalizeTitle(s string) string {
	return normalize(s, titlePunctRe)
}

// NormalizeArtist lowercases an artist name and strips punctuation,
// keeping parentheses.
func NormalizeArtist(s string) string {
	return normalize(s, artistPunctRe)
}

func normalize(s string, punct *regexp.Regexp) string {
	s = strings.ToLower(s)
	s = punct.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
