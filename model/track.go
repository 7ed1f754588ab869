package model

import "time"

// Track represents a track in the Navidrome music library.
type Track struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album"`
	Genre      string     `json:"genre,omitempty"`
	Year       int        `json:"year,omitempty"`
	Duration   int        `json:"duration,omitempty"` // seconds
	PlayCount  int        `json:"playCount"`
	LastPlayed *time.Time `json:"lastPlayed,omitempty"`
	Loved      bool       `json:"loved,omitempty"`
	Rating     int        `json:"rating,omitempty"` // 0-5 stars
}

// Artist represents a Navidrome artist.
type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AlbumCount int    `json:"albumCount"`
	SongCount  int    `json:"songCount"`
}

// PlayEvent is a single listening-history entry. Two shapes exist: real
// scrobbles carry a precise PlayedAt timestamp; synthetic entries derived
// from library play counts carry only PlayCount and Synthetic=true.
type PlayEvent struct {
	TrackID   string    `json:"trackId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Genre     string    `json:"genre,omitempty"`
	PlayedAt  time.Time `json:"playedAt,omitempty"`
	PlayCount int       `json:"playCount,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// TrackStat is the per-track aggregate built from listening history.
// Immutable once built.
type TrackStat struct {
	TrackID     string
	Title       string
	Artist      string
	Album       string
	Genre       string
	TotalPlays  int
	RecentPlays int // plays within the last 7 days
	LastPlay    *time.Time
}
