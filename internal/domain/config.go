package domain

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Binaries     BinariesConfig     `mapstructure:"binaries"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	// BaseDir is the destination root media is downloaded beneath
	BaseDir string `mapstructure:"base_dir"`
}

// DatabaseConfig contains the sqlite store configuration. Jobs and the
// catalog share one database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BinariesConfig locates the external extractor and transcoder
// executables. OverrideDir takes precedence over BundledDir.
type BinariesConfig struct {
	OverrideDir string `mapstructure:"override_dir"`
	BundledDir  string `mapstructure:"bundled_dir"`
}

// NotificationConfig contains desktop notification configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir: "$HOME/Downloads/mediavault",
		},
		Database: DatabaseConfig{
			Path: "$HOME/Downloads/mediavault/mediavault.db",
		},
		Binaries: BinariesConfig{
			OverrideDir: "$HOME/Downloads/mediavault/bin",
			BundledDir:  "./resources/bin",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
