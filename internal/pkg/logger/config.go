package logger

import "fmt"

// Config controls log level, encoding and output destinations.
type Config struct {
	Level            string     // debug, info, warn, error
	Format           string     // json or console
	Output           string     // console, file, or both
	File             FileConfig // rotation settings when writing to file
	EnableCaller     bool
	EnableStacktrace bool
}

// FileConfig holds lumberjack rotation settings.
type FileConfig struct {
	Filename   string
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
	Compress   bool
}

// DefaultConfig returns a console logger at info level.
func DefaultConfig() *Config {
	return &Config{
		Level:        "info",
		Format:       "console",
		Output:       "console",
		EnableCaller: true,
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}

	switch c.Output {
	case "", "console":
	case "file", "both":
		if c.File.Filename == "" {
			return fmt.Errorf("file output requires a filename")
		}
	default:
		return fmt.Errorf("unsupported log output: %s", c.Output)
	}

	return nil
}
