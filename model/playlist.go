package model

import "time"

// Playlist is a locally stored record of a generated playlist.
type Playlist struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ArtistID     string    `json:"artistId" gorm:"size:191;index"`
	PlaylistName string    `json:"playlistName" gorm:"size:255"`
	Songs        string    `json:"-" gorm:"type:text"` // JSON array of song titles
	NavidromeID  string    `json:"navidromePlaylistId" gorm:"size:191"`
	AIReasoning  string    `json:"aiReasoning,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ScheduledPlaylist is a playlist registered for periodic regeneration.
type ScheduledPlaylist struct {
	ID                  int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistType        string    `json:"playlistType" gorm:"size:64"` // re_discover, this_is
	NavidromePlaylistID string    `json:"navidromePlaylistId" gorm:"size:191"`
	RefreshFrequency    string    `json:"refreshFrequency" gorm:"size:32"` // daily, weekly, monthly
	NextRefresh         time.Time `json:"nextRefresh" gorm:"index"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NextInterval returns the duration until the following refresh for the
// configured frequency. Unknown frequencies default to weekly.
func (s *ScheduledPlaylist) NextInterval() time.Duration {
	switch s.RefreshFrequency {
	case "daily":
		return 24 * time.Hour
	case "monthly":
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
