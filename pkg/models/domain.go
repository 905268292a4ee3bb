package models

// Song represents a catalog entry. Artists are ordered as entered but
// matching treats them as a set.
type Song struct {
	ID            string   // Database ID (UUID)
	Title         string   // Song title as stored
	Artists       []string // Artist names, credit order
	Key           string   // Musical key (optional, e.g. "Bb")
	Tempo         int      // Beats per minute (0 = unknown)
	TimeSignature string   // e.g. "4/4" (optional)
}

// SongMeta carries the optional musical metadata attached to a catalog
// song.
type SongMeta struct {
	Key           string
	Tempo         int
	TimeSignature string
}

// Candidate is a parsed, normalized song guess extracted from one input
// line. It lives for a single parse invocation.
type Candidate struct {
	LineNumber   int     // 1-based line number in the pasted text
	OriginalLine string  // Raw line before any cleanup
	Title        string  // Normalized title (lowercase, punctuation stripped)
	Artist       string  // Normalized artist, "" when none was found
	Confidence   float64 // Parse confidence: how unambiguous the split was
}

// Set is a named group of candidates corresponding to one performance set.
type Set struct {
	Name  string
	Songs []Candidate
}

// Complexity classifies how hard an input block was to parse. Advisory
// only; parsing always completes.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ParseResult is the outcome of parsing one pasted setlist. Sets always
// contains at least one entry.
type ParseResult struct {
	Sets        []Set
	Complexity  Complexity
	Message     string // User-facing advisory, "" when complexity is low
	TotalLines  int    // Non-blank song lines seen
	ParsedLines int    // Lines that produced a candidate
}

// Confidence classifies how strongly a match agrees with its candidate.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceExact
	ConfidenceTitleOnly
	ConfidencePartial
	ConfidenceSimilarity
	ConfidenceError
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceTitleOnly:
		return "title-only"
	case ConfidencePartial:
		return "partial"
	case ConfidenceSimilarity:
		return "similarity"
	case ConfidenceError:
		return "error"
	default:
		return "none"
	}
}

// MarshalJSON renders the confidence tier as its string form.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Match pairs a catalog song with how well it fits a candidate. Score is
// always on a single higher-is-better 0..1 scale regardless of tier.
type Match struct {
	Song       Song
	Confidence Confidence
	Score      float64
	Reason     string
}

// MatchOutcome is the full answer for one candidate. The caller always
// receives a well-formed outcome; catalog failures surface as
// ConfidenceError with zero matches, never as an error value.
type MatchOutcome struct {
	Matches    []Match
	IsNewSong  bool
	BestMatch  *Match
	Confidence Confidence
}

// ResolvedCandidate couples a candidate with its catalog matches.
type ResolvedCandidate struct {
	Candidate Candidate
	Outcome   MatchOutcome
}

// ResolvedSet mirrors Set with matching applied to every song.
type ResolvedSet struct {
	Name  string
	Songs []ResolvedCandidate
}

// ResolveResult is ParseResult plus match outcomes, the structure a
// confirmation UI consumes.
type ResolveResult struct {
	Sets       []ResolvedSet
	Complexity Complexity
	Message    string
}
