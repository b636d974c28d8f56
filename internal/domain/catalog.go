package domain

import "time"

// Platform represents an extraction source site. Created lazily on first
// sighting of a new name, never updated afterwards.
type Platform struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// TableName sets the platforms table name
func (Platform) TableName() string { return "platforms" }

// Profile represents a content owner scoped to a platform. Unique on
// (owner_id, platform_id); the display name is refreshed when a later
// extraction reports a different one.
type Profile struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OwnerID    string    `json:"owner_id" gorm:"not null;uniqueIndex:uq_owner_platform"`
	OwnerName  string    `json:"owner_name"`
	PlatformID uint      `json:"platform_id" gorm:"not null;uniqueIndex:uq_owner_platform"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the profiles table name
func (Profile) TableName() string { return "profiles" }

// Media is one cataloged media item
type Media struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"not null"`
	Filepath      string    `json:"filepath" gorm:"not null"`
	URL           *string   `json:"url,omitempty"`
	Filesize      *int64    `json:"filesize,omitempty"`
	ThumbnailPath *string   `json:"thumbnail_path,omitempty"`
	PlatformID    *uint     `json:"platform_id,omitempty"`
	ProfileID     *uint     `json:"profile_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Platform *Platform `json:"platform,omitempty" gorm:"foreignKey:PlatformID"`
	Profile  *Profile  `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	Tags     []Tag     `json:"tags,omitempty" gorm:"many2many:media_tags;constraint:OnDelete:CASCADE"`
}

// TableName sets the media table name
func (Media) TableName() string { return "media" }

// Tag is a named label attached to media items
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the tags table name
func (Tag) TableName() string { return "tags" }
