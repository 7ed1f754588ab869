package repository

import (
	"encoding/json"
	"fmt"

	"MagicLists/db"
	"MagicLists/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for stored playlist operations.
type PlaylistRepository interface {
	CreatePlaylist(playlist *model.Playlist, songs []string) error
	GetPlaylistByID(id int64) (*model.Playlist, error)
	GetAllPlaylists() ([]*model.Playlist, error)
	DeletePlaylist(id int64) error
	SongTitles(playlist *model.Playlist) ([]string, error)
}

// gormPlaylistRepository implements PlaylistRepository on GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a repository bound to the shared GORM handle.
func NewGormPlaylistRepository() PlaylistRepository {
	return &gormPlaylistRepository{db: db.GormDB}
}

// CreatePlaylist stores a playlist with its song titles serialized as JSON.
func (r *gormPlaylistRepository) CreatePlaylist(playlist *model.Playlist, songs []string) error {
	if songs == nil {
		songs = []string{}
	}
	data, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist songs: %w", err)
	}
	playlist.Songs = string(data)

	if err := r.db.Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

// GetPlaylistByID retrieves a playlist, or nil when not found.
func (r *gormPlaylistRepository) GetPlaylistByID(id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.First(&playlist, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return &playlist, nil
}

// GetAllPlaylists returns all stored playlists, newest first.
func (r *gormPlaylistRepository) GetAllPlaylists() ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	if err := r.db.Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// DeletePlaylist removes a stored playlist record.
func (r *gormPlaylistRepository) DeletePlaylist(id int64) error {
	if err := r.db.Delete(&model.Playlist{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	return nil
}

// SongTitles deserializes the stored song-title list.
func (r *gormPlaylistRepository) SongTitles(playlist *model.Playlist) ([]string, error) {
	if playlist.Songs == "" {
		return []string{}, nil
	}
	var songs []string
	if err := json.Unmarshal([]byte(playlist.Songs), &songs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playlist songs: %w", err)
	}
	return songs, nil
}
