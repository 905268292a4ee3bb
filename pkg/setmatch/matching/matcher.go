// Package matching resolves parsed setlist candidates against a song
// catalog using staged exact, partial, and similarity searches.
package matching

import (
	"context"
	"sort"

	"setmatch/pkg/models"
	"setmatch/pkg/setmatch/parser"
)

// Catalog is the read-only view of the song store the matcher needs. All
// three queries are bounded; implementations must return rows in a stable
// order so repeated searches over an unchanged catalog agree.
type Catalog interface {
	FindExactTitle(ctx context.Context, title string) ([]models.Song, error)
	FindTitleContaining(ctx context.Context, substr string, limit int) ([]models.Song, error)
	Sample(ctx context.Context, limit int) ([]models.Song, error)
}

// Logger is the subset of logging the matcher uses.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

const (
	// Stage bounds.
	partialLimit      = 20
	DefaultSampleSize = 200
	similarityTopN    = 10

	// Scoring. Fuzzy scores weight title similarity against artist
	// agreement; exact hits sit above every fuzzy score so the single
	// descending sort keeps them first.
	titleWeight    = 0.8
	artistWeight   = 0.2
	scoreExact     = 1.0
	scoreTitleOnly = 0.9

	// Thresholds.
	partialKeepThreshold    = 0.4
	similarityQualify       = 0.3
	similarityKeepThreshold = 0.3
)

// Matcher searches a catalog for songs resembling a candidate.
type Matcher struct {
	catalog    Catalog
	log        Logger
	sampleSize int
}

func NewMatcher(catalog Catalog, log Logger, sampleSize int) *Matcher {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Matcher{catalog: catalog, log: log, sampleSize: sampleSize}
}

// FindSongMatches resolves one candidate. It never returns an error:
// catalog failures are logged and reported as ConfidenceError with zero
// matches, so the caller always gets a well-formed outcome.
func (m *Matcher) FindSongMatches(ctx context.Context, cand models.Candidate) models.MatchOutcome {
	matches, err := m.search(ctx, cand)
	if err != nil {
		m.log.Warnf("catalog search failed for %q: %v", cand.Title, err)
		return models.MatchOutcome{
			Matches:    []models.Match{},
			IsNewSong:  false,
			Confidence: models.ConfidenceError,
		}
	}

	outcome := models.MatchOutcome{
		Matches:   matches,
		IsNewSong: len(matches) == 0,
	}
	if len(matches) > 0 {
		outcome.BestMatch = &matches[0]
		outcome.Confidence = matches[0].Confidence
	}
	return outcome
}

func (m *Matcher) search(ctx context.Context, cand models.Candidate) ([]models.Match, error) {
	// Stage 1: exact title. Any hit ends the search.
	exactRows, err := m.catalog.FindExactTitle(ctx, cand.Title)
	if err != nil {
		return nil, err
	}
	if len(exactRows) > 0 {
		matches := make([]models.Match, 0, len(exactRows))
		for _, song := range exactRows {
			if artistAgrees(cand.Artist, song) {
				matches = append(matches, models.Match{
					Song:       song,
					Confidence: models.ConfidenceExact,
					Score:      scoreExact,
					Reason:     "exact title and artist match",
				})
			} else {
				matches = append(matches, models.Match{
					Song:       song,
					Confidence: models.ConfidenceTitleOnly,
					Score:      scoreTitleOnly,
					Reason:     "exact title match, different artist",
				})
			}
		}
		sortMatches(matches)
		return matches, nil
	}

	byID := make(map[string]models.Match)

	// Stage 2: catalog titles containing the candidate title.
	partialRows, err := m.catalog.FindTitleContaining(ctx, cand.Title, partialLimit)
	if err != nil {
		return nil, err
	}
	for _, song := range partialRows {
		sim := TitleSimilarity(cand.Title, parser.NormalizeTitle(song.Title))
		score := titleWeight*sim + artistWeight*artistScore(cand.Artist, song)
		if score > partialKeepThreshold {
			keepBest(byID, models.Match{
				Song:       song,
				Confidence: models.ConfidencePartial,
				Score:      score,
				Reason:     "title contains candidate",
			})
		}
	}

	// Stage 3: similarity over a bounded sample, run regardless of what
	// stage 2 found.
	sampleRows, err := m.catalog.Sample(ctx, m.sampleSize)
	if err != nil {
		return nil, err
	}
	type scoredSong struct {
		song models.Song
		sim  float64
	}
	qualified := make([]scoredSong, 0, len(sampleRows))
	for _, song := range sampleRows {
		sim := TitleSimilarity(cand.Title, parser.NormalizeTitle(song.Title))
		if sim > similarityQualify {
			qualified = append(qualified, scoredSong{song: song, sim: sim})
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].sim != qualified[j].sim {
			return qualified[i].sim > qualified[j].sim
		}
		return qualified[i].song.Title < qualified[j].song.Title
	})
	if len(qualified) > similarityTopN {
		qualified = qualified[:similarityTopN]
	}
	for _, q := range qualified {
		score := titleWeight*q.sim + artistWeight*artistScore(cand.Artist, q.song)
		if score > similarityKeepThreshold {
			keepBest(byID, models.Match{
				Song:       q.song,
				Confidence: models.ConfidenceSimilarity,
				Score:      score,
				Reason:     "similar title",
			})
		}
	}

	matches := make([]models.Match, 0, len(byID))
	for _, match := range byID {
		matches = append(matches, match)
	}
	sortMatches(matches)
	return matches, nil
}

// keepBest merges stage 2 and stage 3 hits for the same song, keeping the
// higher-scored one.
func keepBest(byID map[string]models.Match, match models.Match) {
	if existing, ok := byID[match.Song.ID]; ok && existing.Score >= match.Score {
		return
	}
	byID[match.Song.ID] = match
}

// sortMatches orders best-first: descending score, title as a
// deterministic tiebreak.
func sortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Song.Title < matches[j].Song.Title
	})
}

// artistAgrees reports a full-confidence artist match: the candidate
// artist equals one of the song's artists after normalization, or neither
// side names an artist at all.
func artistAgrees(candArtist string, song models.Song) bool {
	if candArtist == "" {
		return len(song.Artists) == 0
	}
	return artistScore(candArtist, song) > 0
}

// artistScore is 1 when the candidate artist matches any of the song's
// artists (order-irrelevant), else 0. Candidates without an artist score 0
// so fuzzy ranking relies on the title alone.
func artistScore(candArtist string, song models.Song) float64 {
	if candArtist == "" {
		return 0.0
	}
	for _, name := range song.Artists {
		if parser.NormalizeArtist(name) == candArtist {
			return 1.0
		}
	}
	return 0.0
}
