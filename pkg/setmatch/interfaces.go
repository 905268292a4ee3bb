package setmatch

import (
	"context"

	"setmatch/pkg/models"
	"setmatch/pkg/setmatch/matching"
)

// Service is the full setlist-resolution surface: parsing pasted text,
// matching candidates against the catalog, and catalog management.
type Service interface {
	ParseSetlist(input string) models.ParseResult
	ResolveSetlist(ctx context.Context, input string) models.ResolveResult
	MatchCandidate(ctx context.Context, cand models.Candidate) models.MatchOutcome
	AddSong(ctx context.Context, title string, artists []string, meta models.SongMeta) (string, error)
	GetSongByID(ctx context.Context, songID string) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	DeleteSong(ctx context.Context, songID string) error
	Close() error
}

// Catalog extends the matcher's read-only view with the write surface the
// service needs for catalog management.
type Catalog interface {
	matching.Catalog
	RegisterSong(ctx context.Context, title string, artists []string, meta models.SongMeta) (string, error)
	GetSongByID(ctx context.Context, songID string) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	DeleteSongByID(ctx context.Context, songID string) error
	Close() error
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
