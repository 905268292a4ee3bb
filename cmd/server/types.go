package main

import (
	"fmt"
	"strings"
)

// Pasted setlists beyond this are rejected outright; the parser itself
// flags anything over 50 lines as high complexity well before this.
const maxSetlistLines = 1000

// ParseSetlistRequest is the request body for POST /api/setlists/parse and
// POST /api/setlists/resolve.
type ParseSetlistRequest struct {
	Text string `json:"text"`
}

// Validate checks the request before parsing.
func (r *ParseSetlistRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if lines := strings.Count(r.Text, "\n") + 1; lines > maxSetlistLines {
		return fmt.Errorf("too many lines: %d (maximum: %d)", lines, maxSetlistLines)
	}
	return nil
}

// MatchRequest is the request body for POST /api/match.
type MatchRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

func (r *MatchRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}

// AddSongRequest is the request body for POST /api/songs.
type AddSongRequest struct {
	Title         string   `json:"title"`
	Artists       []string `json:"artists,omitempty"`
	Key           string   `json:"key,omitempty"`
	Tempo         int      `json:"tempo,omitempty"`
	TimeSignature string   `json:"time_signature,omitempty"`
}

func (r *AddSongRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}

// SongDTO is the wire form of a catalog song.
type SongDTO struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Artists       []string `json:"artists"`
	Key           string   `json:"key,omitempty"`
	Tempo         int      `json:"tempo,omitempty"`
	TimeSignature string   `json:"time_signature,omitempty"`
}

// CandidateDTO is the wire form of a parsed song candidate.
type CandidateDTO struct {
	LineNumber   int     `json:"line_number"`
	OriginalLine string  `json:"original_line"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// SetDTO groups candidates under a set name.
type SetDTO struct {
	Name  string         `json:"name"`
	Songs []CandidateDTO `json:"songs"`
}

// ParseSetlistResponse is the response for POST /api/setlists/parse.
type ParseSetlistResponse struct {
	Sets       []SetDTO `json:"sets"`
	Complexity string   `json:"complexity"`
	Message    string   `json:"message,omitempty"`
}

// MatchDTO is one scored catalog match.
type MatchDTO struct {
	Song       SongDTO `json:"song"`
	Confidence string  `json:"confidence"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// MatchOutcomeDTO is the full answer for one candidate.
type MatchOutcomeDTO struct {
	Matches    []MatchDTO `json:"matches"`
	IsNewSong  bool       `json:"is_new_song"`
	BestMatch  *MatchDTO  `json:"best_match,omitempty"`
	Confidence string     `json:"confidence"`
}

// ResolvedCandidateDTO pairs a candidate with its match outcome.
type ResolvedCandidateDTO struct {
	Candidate CandidateDTO    `json:"candidate"`
	Outcome   MatchOutcomeDTO `json:"outcome"`
}

// ResolvedSetDTO mirrors SetDTO with matching applied.
type ResolvedSetDTO struct {
	Name  string                 `json:"name"`
	Songs []ResolvedCandidateDTO `json:"songs"`
}

// ResolveSetlistResponse is the response for POST /api/setlists/resolve.
type ResolveSetlistResponse struct {
	Sets       []ResolvedSetDTO `json:"sets"`
	Complexity string           `json:"complexity"`
	Message    string           `json:"message,omitempty"`
}

// ListSongsResponse is the response for GET /api/songs.
type ListSongsResponse struct {
	Songs []SongDTO `json:"songs"`
	Count int       `json:"count"`
}

// AddSongResponse is the response for POST /api/songs.
type AddSongResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// DeleteSongResponse is the response for DELETE /api/songs/{id}.
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse is the response for GET /api/health/metrics.
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	SongCount    int    `json:"song_count"`
	SampleLimit  int    `json:"sample_limit"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
