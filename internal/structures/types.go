package structures

import (
	"io"
)

// Identity is the signed-in user's profile as known to the client
type Identity struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	OwnedVideoIDs []string `json:"owned_video_ids"`
}

// Clone returns a copy that shares no slices with the receiver
func (i Identity) Clone() Identity {
	out := i
	if i.OwnedVideoIDs != nil {
		out.OwnedVideoIDs = append([]string(nil), i.OwnedVideoIDs...)
	}
	return out
}

// Session is the client's record of the current authentication state
type Session struct {
	Identity  *Identity
	Token     string
	IsLoading bool
}

// Video represents an uploaded video as confirmed by the server
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailRef string `json:"thumbnail_ref"`
	MediaRef     string `json:"media_ref"`
	OwnerID      string `json:"owner_id"`
}

// Credentials are used to sign in
type Credentials struct {
	Email    string
	Password string
}

// Profile is used to create an account
type Profile struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is a confirmed sign-in or sign-up
type AuthResult struct {
	Identity Identity
	Token    string
}

// VideoMetadata is the textual part of an upload
type VideoMetadata struct {
	Title       string
	Description string
}

// MediaFile is a named binary part of an upload
type MediaFile struct {
	Name   string
	Reader io.Reader
}

// Present reports whether the file carries content
func (f MediaFile) Present() bool {
	return f.Reader != nil
}

// MediaPayload holds the binary parts of an upload
type MediaPayload struct {
	Thumbnail MediaFile
	Video     MediaFile
}

// VideoChanges is a partial update. Nil fields are left unchanged.
type VideoChanges struct {
	Title        *string
	Description  *string
	ThumbnailRef *string
}

// Empty reports whether no field is set
func (c VideoChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.ThumbnailRef == nil
}

// Apply merges the set fields into v and returns the result
func (c VideoChanges) Apply(v Video) Video {
	if c.Title != nil {
		v.Title = *c.Title
	}
	if c.Description != nil {
		v.Description = *c.Description
	}
	if c.ThumbnailRef != nil {
		v.ThumbnailRef = *c.ThumbnailRef
	}
	return v
}

// Config represents the application configuration
type Config struct {
	API         APIConfig     `toml:"api"`
	Storage     StorageConfig `toml:"storage"`
	Theme       Theme         `toml:"theme"`
	KeyBindings KeyBindings   `toml:"key_bindings"`
}

// APIConfig configures the connection to the video API
type APIConfig struct {
	BaseURL               string  `toml:"base_url" env:"VIDSTREAM_BACKEND_URL"`
	AuthScheme            string  `toml:"auth_scheme" env:"VIDSTREAM_AUTH_SCHEME"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds" env:"VIDSTREAM_REQUEST_TIMEOUT"`
	RateLimit             float64 `toml:"rate_limit" env:"VIDSTREAM_RATE_LIMIT"` // requests per second, 0 disables
	RateBurst             int     `toml:"rate_burst" env:"VIDSTREAM_RATE_BURST"`
}

// StorageConfig selects where the session is persisted
type StorageConfig struct {
	Backend string `toml:"backend" env:"VIDSTREAM_STORAGE"` // sqlite or file
}

// Theme represents the UI theme configuration
type Theme struct {
	Foreground string `toml:"foreground"`
	Selected   string `toml:"selected"`
	Accent     string `toml:"accent"`
	Border     string `toml:"border"`
	Error      string `toml:"error"`
	Success    string `toml:"success"`
}

// KeyBindings represents configurable keyboard shortcuts
type KeyBindings struct {
	// Global
	Quit []string `toml:"quit"`
	Back []string `toml:"back"`

	// Navigation
	MoveUp    []string `toml:"move_up"`
	MoveDown  []string `toml:"move_down"`
	Select    []string `toml:"select"`
	NextField []string `toml:"next_field"`
	PrevField []string `toml:"prev_field"`

	// Screens and actions
	Search     string `toml:"search"`
	Auth       string `toml:"auth"`
	Dashboard  string `toml:"dashboard"`
	Refresh    string `toml:"refresh"`
	Edit       string `toml:"edit"`
	Delete     string `toml:"delete"`
	Logout     string `toml:"logout"`
	NextTab    string `toml:"next_tab"`
	ToggleAuth string `toml:"toggle_auth"`
}
