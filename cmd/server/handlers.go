package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"setmatch/pkg/logger"
	"setmatch/pkg/models"
	"setmatch/pkg/setmatch"
	"setmatch/pkg/setmatch/parser"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service setmatch.Service
	config  *ServerConfig
	log     setmatch.Logger
}

// NewServer creates a new server instance.
func NewServer(service setmatch.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response.
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "setmatch API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"songs":          "GET /api/songs",
			"addSong":        "POST /api/songs",
			"getSong":        "GET /api/songs/{id}",
			"deleteSong":     "DELETE /api/songs/{id}",
			"parseSetlist":   "POST /api/setlists/parse",
			"resolveSetlist": "POST /api/setlists/resolve",
			"match":          "POST /api/match",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs(r.Context())
	if err != nil {
		s.log.Errorf("Failed to get song count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		SongCount:    len(songs),
		SampleLimit:  s.config.SampleLimit,
	})
}

// handleSongs handles GET and POST /api/songs
func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSongs(w, r)
	case http.MethodPost:
		s.handleAddSong(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSong handles GET and DELETE /api/songs/{id}
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	songID := strings.TrimPrefix(r.URL.Path, "/api/songs/")
	if songID == "" || strings.Contains(songID, "/") {
		s.respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSong(w, r, songID)
	case http.MethodDelete:
		s.handleDeleteSong(w, r, songID)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs(r.Context())
	if err != nil {
		s.log.Errorf("Failed to list songs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve songs")
		return
	}

	songDTOs := make([]SongDTO, len(songs))
	for i, song := range songs {
		songDTOs[i] = toSongDTO(song)
	}

	s.respondJSON(w, http.StatusOK, ListSongsResponse{
		Songs: songDTOs,
		Count: len(songDTOs),
	})
}

func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	var req AddSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.service.AddSong(r.Context(), req.Title, req.Artists, models.SongMeta{
		Key:           req.Key,
		Tempo:         req.Tempo,
		TimeSignature: req.TimeSignature,
	})
	if err != nil {
		s.log.Errorf("Failed to add song %q: %v", req.Title, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to add song")
		return
	}

	s.respondJSON(w, http.StatusCreated, AddSongResponse{
		ID:      id,
		Message: "Song registered",
	})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request, songID string) {
	song, err := s.service.GetSongByID(r.Context(), songID)
	if err != nil {
		s.log.Warnf("Song not found: %s", songID)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song %s not found", songID))
		return
	}

	s.respondJSON(w, http.StatusOK, toSongDTO(*song))
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID string) {
	song, err := s.service.GetSongByID(r.Context(), songID)
	if err != nil {
		s.log.Warnf("Song not found for deletion: %s", songID)
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Song %s not found", songID))
		return
	}

	if err := s.service.DeleteSong(r.Context(), songID); err != nil {
		s.log.Errorf("Failed to delete song %s: %v", songID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	s.log.Infof("Deleted song: %s (ID: %s)", song.Title, songID)
	s.respondJSON(w, http.StatusOK, DeleteSongResponse{
		Message: "Song deleted successfully",
		ID:      songID,
	})
}

// handleParseSetlist handles POST /api/setlists/parse
func (s *Server) handleParseSetlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ParseSetlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.service.ParseSetlist(req.Text)

	sets := make([]SetDTO, len(result.Sets))
	for i, set := range result.Sets {
		sets[i] = toSetDTO(set)
	}

	s.respondJSON(w, http.StatusOK, ParseSetlistResponse{
		Sets:       sets,
		Complexity: string(result.Complexity),
		Message:    result.Message,
	})
}

// handleResolveSetlist handles POST /api/setlists/resolve
func (s *Server) handleResolveSetlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ParseSetlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.service.ResolveSetlist(r.Context(), req.Text)

	sets := make([]ResolvedSetDTO, len(result.Sets))
	for i, set := range result.Sets {
		songs := make([]ResolvedCandidateDTO, len(set.Songs))
		for j, rc := range set.Songs {
			songs[j] = ResolvedCandidateDTO{
				Candidate: toCandidateDTO(rc.Candidate),
				Outcome:   toOutcomeDTO(rc.Outcome),
			}
		}
		sets[i] = ResolvedSetDTO{Name: set.Name, Songs: songs}
	}

	s.respondJSON(w, http.StatusOK, ResolveSetlistResponse{
		Sets:       sets,
		Complexity: string(result.Complexity),
		Message:    result.Message,
	})
}

// handleMatch handles POST /api/match
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cand := models.Candidate{
		Title:  parser.NormalizeTitle(req.Title),
		Artist: parser.NormalizeArtist(req.Artist),
	}
	outcome := s.service.MatchCandidate(r.Context(), cand)

	s.respondJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

func toSongDTO(song models.Song) SongDTO {
	artists := song.Artists
	if artists == nil {
		artists = []string{}
	}
	return SongDTO{
		ID:            song.ID,
		Title:         song.Title,
		Artists:       artists,
		Key:           song.Key,
		Tempo:         song.Tempo,
		TimeSignature: song.TimeSignature,
	}
}

func toCandidateDTO(cand models.Candidate) CandidateDTO {
	return CandidateDTO{
		LineNumber:   cand.LineNumber,
		OriginalLine: cand.OriginalLine,
		Title:        cand.Title,
		Artist:       cand.Artist,
		Confidence:   cand.Confidence,
	}
}

func toSetDTO(set models.Set) SetDTO {
	songs := make([]CandidateDTO, len(set.Songs))
	for i, cand := range set.Songs {
		songs[i] = toCandidateDTO(cand)
	}
	return SetDTO{Name: set.Name, Songs: songs}
}

func toMatchDTO(match models.Match) MatchDTO {
	return MatchDTO{
		Song:       toSongDTO(match.Song),
		Confidence: match.Confidence.String(),
		Score:      match.Score,
		Reason:     match.Reason,
	}
}

func toOutcomeDTO(outcome models.MatchOutcome) MatchOutcomeDTO {
	matches := make([]MatchDTO, len(outcome.Matches))
	for i, match := range outcome.Matches {
		matches[i] = toMatchDTO(match)
	}
	dto := MatchOutcomeDTO{
		Matches:    matches,
		IsNewSong:  outcome.IsNewSong,
		Confidence: outcome.Confidence.String(),
	}
	if outcome.BestMatch != nil {
		best := toMatchDTO(*outcome.BestMatch)
		dto.BestMatch = &best
	}
	return dto
}
