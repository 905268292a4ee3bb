package matching

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"setmatch/pkg/models"
)

// fakeCatalog serves matcher queries from an in-memory slice and counts
// calls so tests can assert stage short-circuiting.
type fakeCatalog struct {
	songs []models.Song
	fail  bool

	exactCalls   int
	partialCalls int
	sampleCalls  int
}

var errCatalogDown = errors.New("catalog unavailable")

func (f *fakeCatalog) FindExactTitle(ctx context.Context, title string) ([]models.Song, error) {
	f.exactCalls++
	if f.fail {
		return nil, errCatalogDown
	}
	var out []models.Song
	for _, song := range f.songs {
		if strings.EqualFold(song.Title, title) {
			out = append(out, song)
		}
	}
	return out, nil
}

func (f *fakeCatalog) FindTitleContaining(ctx context.Context, substr string, limit int) ([]models.Song, error) {
	f.partialCalls++
	if f.fail {
		return nil, errCatalogDown
	}
	var out []models.Song
	for _, song := range f.songs {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(song.Title), strings.ToLower(substr)) {
			out = append(out, song)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Sample(ctx context.Context, limit int) ([]models.Song, error) {
	f.sampleCalls++
	if f.fail {
		return nil, errCatalogDown
	}
	if len(f.songs) <= limit {
		return f.songs, nil
	}
	return f.songs[:limit], nil
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Warnf(format string, args ...any)  {}

func newTestMatcher(catalog *fakeCatalog) *Matcher {
	return NewMatcher(catalog, nopLogger{}, 0)
}

func song(id, title string, artists ...string) models.Song {
	return models.Song{ID: id, Title: title, Artists: artists}
}

func TestFindSongMatchesExact(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugaree", "Grateful Dead"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{
		Title:  "sugaree",
		Artist: "grateful dead",
	})

	if outcome.IsNewSong {
		t.Error("IsNewSong = true, want false")
	}
	if len(outcome.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(outcome.Matches))
	}
	if outcome.Matches[0].Confidence != models.ConfidenceExact {
		t.Errorf("confidence = %v, want exact", outcome.Matches[0].Confidence)
	}
	if outcome.Matches[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0", outcome.Matches[0].Score)
	}
	if outcome.BestMatch == nil || outcome.BestMatch.Song.ID != "1" {
		t.Error("BestMatch should point at the exact match")
	}
	if outcome.Confidence != models.ConfidenceExact {
		t.Errorf("outcome confidence = %v, want exact", outcome.Confidence)
	}
}

func TestFindSongMatchesExactSkipsLaterStages(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugaree", "Grateful Dead"),
		song("2", "Sugaree Jam", "Grateful Dead"),
	}}
	m := newTestMatcher(catalog)

	m.FindSongMatches(context.Background(), models.Candidate{Title: "sugaree", Artist: "grateful dead"})

	if catalog.exactCalls != 1 {
		t.Errorf("exact queries = %d, want 1", catalog.exactCalls)
	}
	if catalog.partialCalls != 0 || catalog.sampleCalls != 0 {
		t.Errorf("partial/sample queries = %d/%d, want 0/0 after an exact hit",
			catalog.partialCalls, catalog.sampleCalls)
	}
}

func TestFindSongMatchesTitleOnly(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugaree", "Jerry Garcia"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{
		Title:  "sugaree",
		Artist: "grateful dead",
	})

	if len(outcome.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(outcome.Matches))
	}
	if outcome.Matches[0].Confidence != models.ConfidenceTitleOnly {
		t.Errorf("confidence = %v, want title-only", outcome.Matches[0].Confidence)
	}
	if outcome.Matches[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", outcome.Matches[0].Score)
	}
}

func TestFindSongMatchesExactWithNoArtists(t *testing.T) {
	// Candidate and catalog both lacking an artist counts as agreement.
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugaree"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{Title: "sugaree"})

	if len(outcome.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(outcome.Matches))
	}
	if outcome.Matches[0].Confidence != models.ConfidenceExact {
		t.Errorf("confidence = %v, want exact", outcome.Matches[0].Confidence)
	}
}

func TestFindSongMatchesPartial(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugar Magnolia Blues", "Grateful Dead"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{
		Title: "sugar magnolia",
	})

	if outcome.IsNewSong {
		t.Fatal("IsNewSong = true, want false")
	}
	if len(outcome.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(outcome.Matches))
	}
	match := outcome.Matches[0]
	if match.Confidence != models.ConfidencePartial {
		t.Errorf("confidence = %v, want partial", match.Confidence)
	}
	// Containment similarity 0.8 weighted by 0.8, no artist credit.
	if !almostEqual(match.Score, 0.64) {
		t.Errorf("score = %v, want 0.64", match.Score)
	}
}

func TestFindSongMatchesSimilarityStage(t *testing.T) {
	// A typo that is not a substring hit only surfaces via the sample
	// stage's edit-distance scoring.
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Sugaree", "Grateful Dead"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{
		Title:  "sugarey",
		Artist: "grateful dead",
	})

	if outcome.IsNewSong {
		t.Fatal("IsNewSong = true, want false")
	}
	if len(outcome.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(outcome.Matches))
	}
	match := outcome.Matches[0]
	if match.Confidence != models.ConfidenceSimilarity {
		t.Errorf("confidence = %v, want similarity", match.Confidence)
	}
	if match.Score <= similarityKeepThreshold || match.Score > 1.0 {
		t.Errorf("score = %v, want in (%v, 1.0]", match.Score, similarityKeepThreshold)
	}
}

func TestFindSongMatchesEmptyCatalog(t *testing.T) {
	m := newTestMatcher(&fakeCatalog{})

	outcome := m.FindSongMatches(context.Background(), models.Candidate{Title: "anything"})

	if !outcome.IsNewSong {
		t.Error("IsNewSong = false, want true for empty catalog")
	}
	if len(outcome.Matches) != 0 {
		t.Errorf("got %d matches, want 0", len(outcome.Matches))
	}
	if outcome.BestMatch != nil {
		t.Error("BestMatch should be nil with no matches")
	}
	if outcome.Confidence != models.ConfidenceNone {
		t.Errorf("confidence = %v, want none", outcome.Confidence)
	}
}

func TestFindSongMatchesCatalogError(t *testing.T) {
	m := newTestMatcher(&fakeCatalog{fail: true})

	outcome := m.FindSongMatches(context.Background(), models.Candidate{Title: "sugaree"})

	if outcome.Confidence != models.ConfidenceError {
		t.Errorf("confidence = %v, want error", outcome.Confidence)
	}
	if len(outcome.Matches) != 0 {
		t.Errorf("got %d matches, want 0", len(outcome.Matches))
	}
	if outcome.IsNewSong {
		t.Error("IsNewSong = true; a failed lookup must not claim the song is new")
	}
}

func TestFindSongMatchesRankingDescending(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Fire On The Mountain Jam"),
		song("2", "Fire On The Mountain Dub Version Extended"),
	}}
	m := newTestMatcher(catalog)

	outcome := m.FindSongMatches(context.Background(), models.Candidate{
		Title: "fire on the mountain",
	})

	if len(outcome.Matches) < 2 {
		t.Fatalf("got %d matches, want >= 2", len(outcome.Matches))
	}
	for i := 1; i < len(outcome.Matches); i++ {
		if outcome.Matches[i-1].Score < outcome.Matches[i].Score {
			t.Errorf("matches not sorted descending: %v before %v",
				outcome.Matches[i-1].Score, outcome.Matches[i].Score)
		}
	}
	if outcome.BestMatch.Song.ID != outcome.Matches[0].Song.ID {
		t.Error("BestMatch should be the first (highest-scored) match")
	}
}

func TestFindSongMatchesIdempotent(t *testing.T) {
	catalog := &fakeCatalog{songs: []models.Song{
		song("1", "Scarlet Begonias", "Grateful Dead"),
		song("2", "Scarlet Fire", "Grateful Dead"),
		song("3", "Begonias", "Someone Else"),
	}}
	m := newTestMatcher(catalog)
	cand := models.Candidate{Title: "scarlet begonias", Artist: "grateful dead"}

	first := m.FindSongMatches(context.Background(), cand)
	second := m.FindSongMatches(context.Background(), cand)

	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Errorf("repeated search differs:\nfirst:  %+v\nsecond: %+v", first.Matches, second.Matches)
	}
}
