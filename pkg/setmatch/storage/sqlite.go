// Package storage persists the song catalog in SQLite and serves the
// bounded query shapes the matcher needs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"setmatch/pkg/models"
	"setmatch/pkg/setmatch/parser"
)

const DefaultDBFile = "setmatch.sqlite3"

const errDBClientNil = "db client is nil"

// Exact lookups are bounded; duplicate titles beyond this are noise.
const exactTitleLimit = 10

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Song struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string `gorm:"index:idx_song_title"`
	SongKey       string `gorm:"column:song_key"`
	Tempo         int
	TimeSignature string
	CreatedAt     time.Time
	Artists       []SongArtist `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`
}

type SongArtist struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	SongID   string `gorm:"type:varchar(36);index:idx_artist_song"`
	Name     string `gorm:"index:idx_artist_name"`
	Position int
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SETMATCH_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &SongArtist{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterSong creates a catalog entry, or returns the existing ID when a
// song with the same title and artist set is already present.
func (c *DBClient) RegisterSong(ctx context.Context, title string, artists []string, meta models.SongMeta) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	existing, err := c.FindExactTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("checking existing song: %w", err)
	}
	for _, song := range existing {
		if sameArtistSet(song.Artists, artists) {
			return song.ID, nil
		}
	}

	row := Song{
		ID:            uuid.NewString(),
		Title:         title,
		SongKey:       meta.Key,
		Tempo:         meta.Tempo,
		TimeSignature: meta.TimeSignature,
	}
	for i, name := range artists {
		row.Artists = append(row.Artists, SongArtist{Name: name, Position: i})
	}

	if err := c.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating song: %w", err)
	}
	return row.ID, nil
}

// FindExactTitle returns songs whose title equals the given one,
// case-insensitively. Bounded; ordered by title then ID for stable
// results.
func (c *DBClient) FindExactTitle(ctx context.Context, title string) ([]models.Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Song
	err := c.withArtists(ctx).
		Where("LOWER(title) = ?", strings.ToLower(title)).
		Order("title, id").
		Limit(exactTitleLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("exact title query: %w", err)
	}
	return toDomain(rows), nil
}

// FindTitleContaining returns songs whose title contains the substring,
// case-insensitively, up to limit rows.
func (c *DBClient) FindTitleContaining(ctx context.Context, substr string, limit int) ([]models.Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Song
	err := c.withArtists(ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(substr)+"%").
		Order("title, id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("substring title query: %w", err)
	}
	return toDomain(rows), nil
}

// Sample returns up to limit catalog rows in a stable order for the
// similarity stage.
func (c *DBClient) Sample(ctx context.Context, limit int) ([]models.Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Song
	err := c.withArtists(ctx).
		Order("title, id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sample query: %w", err)
	}
	return toDomain(rows), nil
}

func (c *DBClient) GetSongByID(ctx context.Context, songID string) (*models.Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Song
	err := c.withArtists(ctx).Where("id = ?", songID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("song %s not found", songID)
		}
		return nil, fmt.Errorf("querying song: %w", err)
	}
	song := toDomainSong(row)
	return &song, nil
}

func (c *DBClient) ListSongs(ctx context.Context) ([]models.Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Song
	err := c.withArtists(ctx).Order("title, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return toDomain(rows), nil
}

func (c *DBClient) DeleteSongByID(ctx context.Context, songID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&SongArtist{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", songID).Delete(&Song{}).Error; err != nil {
			return err
		}
		return nil
	})
}

func (c *DBClient) withArtists(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx).Preload("Artists", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func toDomain(rows []Song) []models.Song {
	out := make([]models.Song, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSong(row))
	}
	return out
}

func toDomainSong(row Song) models.Song {
	artists := make([]string, 0, len(row.Artists))
	for _, a := range row.Artists {
		artists = append(artists, a.Name)
	}
	return models.Song{
		ID:            row.ID,
		Title:         row.Title,
		Artists:       artists,
		Key:           row.SongKey,
		Tempo:         row.Tempo,
		TimeSignature: row.TimeSignature,
	}
}

// sameArtistSet compares artist lists as sets: credit order does not make
// two songs distinct.
func sameArtistSet(stored, names []string) bool {
	if len(stored) != len(names) {
		return false
	}
	set := make(map[string]bool, len(stored))
	for _, name := range stored {
		set[parser.NormalizeArtist(name)] = true
	}
	for _, name := range names {
		if !set[parser.NormalizeArtist(name)] {
			return false
		}
	}
	return true
}
