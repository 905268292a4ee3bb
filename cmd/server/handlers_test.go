package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"setmatch/pkg/models"
	"setmatch/pkg/setmatch"
)

type stubCatalog struct {
	songs  []models.Song
	nextID int
}

func (s *stubCatalog) FindExactTitle(ctx context.Context, title string) ([]models.Song, error) {
	var out []models.Song
	for _, song := range s.songs {
		if strings.EqualFold(song.Title, title) {
			out = append(out, song)
		}
	}
	return out, nil
}

func (s *stubCatalog) FindTitleContaining(ctx context.Context, substr string, limit int) ([]models.Song, error) {
	var out []models.Song
	for _, song := range s.songs {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(song.Title), strings.ToLower(substr)) {
			out = append(out, song)
		}
	}
	return out, nil
}

func (s *stubCatalog) Sample(ctx context.Context, limit int) ([]models.Song, error) {
	if len(s.songs) <= limit {
		return s.songs, nil
	}
	return s.songs[:limit], nil
}

func (s *stubCatalog) RegisterSong(ctx context.Context, title string, artists []string, meta models.SongMeta) (string, error) {
	s.nextID++
	id := fmt.Sprintf("song-%d", s.nextID)
	s.songs = append(s.songs, models.Song{ID: id, Title: title, Artists: artists})
	return id, nil
}

func (s *stubCatalog) GetSongByID(ctx context.Context, songID string) (*models.Song, error) {
	for i := range s.songs {
		if s.songs[i].ID == songID {
			return &s.songs[i], nil
		}
	}
	return nil, fmt.Errorf("song %s not found", songID)
}

func (s *stubCatalog) ListSongs(ctx context.Context) ([]models.Song, error) {
	return s.songs, nil
}

func (s *stubCatalog) DeleteSongByID(ctx context.Context, songID string) error {
	for i := range s.songs {
		if s.songs[i].ID == songID {
			s.songs = append(s.songs[:i], s.songs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("song %s not found", songID)
}

func (s *stubCatalog) Close() error { return nil }

func newTestServer(t *testing.T, catalog *stubCatalog) *Server {
	t.Helper()
	svc, err := setmatch.NewService(setmatch.WithCatalog(catalog))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewServer(svc, &ServerConfig{
		Port:           0,
		DBPath:         "test.sqlite3",
		SampleLimit:    200,
		AllowedOrigins: []string{"*"},
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleParseSetlist(t *testing.T) {
	server := newTestServer(t, &stubCatalog{})
	handler := server.setupRoutes()

	rec := postJSON(t, handler, "/api/setlists/parse", ParseSetlistRequest{
		Text: "Bertha - Grateful Dead\nSet 2\nRipple",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp ParseSetlistResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(resp.Sets))
	}
	if resp.Sets[0].Songs[0].Title != "bertha" {
		t.Errorf("first title = %q, want bertha", resp.Sets[0].Songs[0].Title)
	}
	if resp.Complexity != "low" {
		t.Errorf("complexity = %q, want low", resp.Complexity)
	}
}

func TestHandleParseSetlistRejectsEmptyText(t *testing.T) {
	server := newTestServer(t, &stubCatalog{})
	handler := server.setupRoutes()

	rec := postJSON(t, handler, "/api/setlists/parse", ParseSetlistRequest{Text: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleResolveSetlist(t *testing.T) {
	catalog := &stubCatalog{}
	if _, err := catalog.RegisterSong(context.Background(), "Sugaree", []string{"Grateful Dead"}, models.SongMeta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	server := newTestServer(t, catalog)
	handler := server.setupRoutes()

	rec := postJSON(t, handler, "/api/setlists/resolve", ParseSetlistRequest{
		Text: "Sugaree - Grateful Dead",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp ResolveSetlistResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	outcome := resp.Sets[0].Songs[0].Outcome
	if outcome.IsNewSong {
		t.Error("Sugaree should resolve against the catalog")
	}
	if outcome.Confidence != "exact" {
		t.Errorf("confidence = %q, want exact", outcome.Confidence)
	}
}

func TestHandleMatch(t *testing.T) {
	server := newTestServer(t, &stubCatalog{})
	handler := server.setupRoutes()

	rec := postJSON(t, handler, "/api/match", MatchRequest{Title: "Dark Star"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp MatchOutcomeDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.IsNewSong {
		t.Error("empty catalog should report a new song")
	}
	if resp.Confidence != "none" {
		t.Errorf("confidence = %q, want none", resp.Confidence)
	}
}

func TestSongCRUDOverHTTP(t *testing.T) {
	server := newTestServer(t, &stubCatalog{})
	handler := server.setupRoutes()

	rec := postJSON(t, handler, "/api/songs", AddSongRequest{
		Title:   "Althea",
		Artists: []string{"Grateful Dead"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var added AddSongResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil {
		t.Fatalf("unmarshal add response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", listRec.Code)
	}
	var listed ListSongsResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	if listed.Count != 1 {
		t.Fatalf("count = %d, want 1", listed.Count)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/api/songs/"+added.ID, nil)
	delRec := httptest.NewRecorder()
	handler.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200; body: %s", delRec.Code, delRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/songs/"+added.ID, nil)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Errorf("get-after-delete status = %d, want 404", getRec.Code)
	}
}
