package models

import "time"

// Genre tags a user can declare on their profile. The vocabulary is closed;
// anything outside it is rejected at validation time.
var GamingGenres = []string{
	"fps",
	"action",
	"battle_royale",
	"moba",
	"rpg",
	"adventure",
	"racing",
	"puzzle",
	"simulation",
	"strategy",
	"sports",
	"horror",
}

// ValidGenre reports whether tag belongs to the declared genre vocabulary.
func ValidGenre(tag string) bool {
	for _, g := range GamingGenres {
		if g == tag {
			return true
		}
	}
	return false
}

// MediaRef points at an object in the media bucket. URLs are derived,
// per-resolution renditions written by the upload pipeline.
type MediaRef struct {
	Path string            `firestore:"path" json:"path"`
	URLs map[string]string `firestore:"urls,omitempty" json:"urls,omitempty"`
}

// Stats are informational counters shown on the profile. They carry no
// invariants.
type Stats struct {
	Victories    int `firestore:"victories" json:"victories"`
	Highlights   int `firestore:"highlights" json:"highlights"`
	Achievements int `firestore:"achievements" json:"achievements"`
}

// Presence is the only profile substructure mutated by the system rather
// than the owning user.
type Presence struct {
	Online     bool      `firestore:"online" json:"online"`
	LastSeenAt time.Time `firestore:"lastSeenAt" json:"last_seen_at"`
}

// User is the profile document stored at users/{uid}.
type User struct {
	UID           string    `firestore:"-" json:"uid"`
	Username      string    `firestore:"username" json:"username"`
	UsernameLower string    `firestore:"usernameLower" json:"-"`
	DisplayName   string    `firestore:"displayName" json:"display_name"`
	Bio           string    `firestore:"bio,omitempty" json:"bio,omitempty"`
	Genres        []string  `firestore:"genres,omitempty" json:"genres,omitempty"`
	Avatar        *MediaRef `firestore:"avatar,omitempty" json:"avatar,omitempty"`
	Banner        *MediaRef `firestore:"banner,omitempty" json:"banner,omitempty"`
	Stats         Stats     `firestore:"stats" json:"stats"`
	Presence      Presence  `firestore:"presence" json:"presence"`
	CreatedAt     time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updated_at"`
}

// RegisterRequest defines the body for creating a profile after the client
// signed in with the identity platform.
type RegisterRequest struct {
	IDToken     string   `json:"id_token" validate:"required"`
	Username    string   `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string   `json:"display_name" validate:"required,min=2,max=50"`
	Bio         string   `json:"bio" validate:"max=200"`
	Genres      []string `json:"genres" validate:"max=12,dive,min=2,max=20"`
}

// UpdateProfileRequest is a field-level patch: nil fields are left untouched
// so concurrent edits to other fields are never clobbered.
type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio         *string   `json:"bio,omitempty" validate:"omitempty,max=200"`
	Genres      *[]string `json:"genres,omitempty" validate:"omitempty,max=12,dive,min=2,max=20"`
}

// UpdatePresenceRequest is the heartbeat body.
type UpdatePresenceRequest struct {
	Online bool `json:"online"`
}
