package constants

import "time"

// AppName names the config, data and log directories
const AppName = "vidstream"

// File names under the XDG directories
const (
	ConfigFileName = "config.toml"
	DotEnvFileName = ".env"
	LogFileName    = "vidstream.log"
	SQLiteFileName = "vidstream.db"
	StateFileName  = "state.json"
)

// Gateway defaults
const (
	DefaultGatewayAddr = ":8080"
	DefaultBaseURL     = "http://localhost:8080"
)

// Timing constants
const (
	RefreshDebounce = time.Second
	DefaultTokenTTL = 24 * time.Hour
)

// DefaultMaxUploadBytes caps a single multipart upload
const DefaultMaxUploadBytes = 256 << 20
