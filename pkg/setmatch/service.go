// Package setmatch resolves free-text setlists against a song catalog. It
// wires the parser, the staged matcher, and the SQLite-backed catalog
// behind one Service interface.
package setmatch

import (
	"context"
	"fmt"

	"setmatch/pkg/logger"
	"setmatch/pkg/models"
	"setmatch/pkg/setmatch/matching"
	"setmatch/pkg/setmatch/parser"
	"setmatch/pkg/setmatch/storage"
)

type resolverService struct {
	catalog Catalog
	matcher *matching.Matcher
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	catalog := cfg.Catalog
	if catalog == nil {
		store, err := storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog storage: %w", err)
		}
		catalog = store
	}

	return &resolverService{
		catalog: catalog,
		matcher: matching.NewMatcher(catalog, cfg.Logger, cfg.SampleLimit),
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// ParseSetlist splits pasted text into sets of candidates without touching
// the catalog.
func (s *resolverService) ParseSetlist(input string) models.ParseResult {
	result := parser.ParseSongList(input)
	s.log.Debugf("parsed %d/%d lines into %d sets (complexity %s)",
		result.ParsedLines, result.TotalLines, len(result.Sets), result.Complexity)
	return result
}

// ResolveSetlist parses the input and matches every candidate. It never
// fails: per-candidate catalog errors surface as ConfidenceError outcomes.
func (s *resolverService) ResolveSetlist(ctx context.Context, input string) models.ResolveResult {
	parsed := s.ParseSetlist(input)

	resolved := models.ResolveResult{
		Sets:       make([]models.ResolvedSet, 0, len(parsed.Sets)),
		Complexity: parsed.Complexity,
		Message:    parsed.Message,
	}
	for _, set := range parsed.Sets {
		rs := models.ResolvedSet{
			Name:  set.Name,
			Songs: make([]models.ResolvedCandidate, 0, len(set.Songs)),
		}
		for _, cand := range set.Songs {
			rs.Songs = append(rs.Songs, models.ResolvedCandidate{
				Candidate: cand,
				Outcome:   s.matcher.FindSongMatches(ctx, cand),
			})
		}
		resolved.Sets = append(resolved.Sets, rs)
	}
	return resolved
}

// MatchCandidate resolves a single candidate against the catalog.
func (s *resolverService) MatchCandidate(ctx context.Context, cand models.Candidate) models.MatchOutcome {
	return s.matcher.FindSongMatches(ctx, cand)
}

// AddSong registers a song in the catalog, returning the ID of the new or
// already-existing entry.
func (s *resolverService) AddSong(ctx context.Context, title string, artists []string, meta models.SongMeta) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	id, err := s.catalog.RegisterSong(ctx, title, artists, meta)
	if err != nil {
		return "", fmt.Errorf("failed to register song: %w", err)
	}
	s.log.Infof("registered song %q (ID %s)", title, id)
	return id, nil
}

func (s *resolverService) GetSongByID(ctx context.Context, songID string) (*models.Song, error) {
	return s.catalog.GetSongByID(ctx, songID)
}

func (s *resolverService) ListSongs(ctx context.Context) ([]models.Song, error) {
	return s.catalog.ListSongs(ctx)
}

func (s *resolverService) DeleteSong(ctx context.Context, songID string) error {
	return s.catalog.DeleteSongByID(ctx, songID)
}

// Close releases the catalog's resources.
func (s *resolverService) Close() error {
	return s.catalog.Close()
}
