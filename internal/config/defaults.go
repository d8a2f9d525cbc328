// Package config loads the filecrawl configuration file.
package config

import (
	"runtime"
	"time"

	"filecrawl/internal/archive"
	"filecrawl/internal/checksum"
	"filecrawl/internal/logger"
)

// Config holds all settings.
type Config struct {
	Search   SearchConfig   `json:"search"`
	Checksum ChecksumConfig `json:"checksum"`
	Archive  ArchiveConfig  `json:"archive"`
	Locale   string         `json:"locale"`
	Log      LogConfig      `json:"log"`
}

// SearchConfig configures crawling.
type SearchConfig struct {
	Workers        int      `json:"workers"`
	BufferSize     int      `json:"buffer_size"`
	CrawlVolumes   bool     `json:"crawl_volumes"`
	ExcludeDirs    []string `json:"exclude_dirs"`
	SkipCommonDirs bool     `json:"skip_common_dirs"`
	ExcludeHidden  bool     `json:"exclude_hidden"`
	FollowSymlinks bool     `json:"follow_symlinks"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a duration.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ChecksumConfig configures hashing.
type ChecksumConfig struct {
	Algorithm   string `json:"algorithm"`
	Workers     int    `json:"workers"`
	UseMMap     bool   `json:"use_mmap"`
	MinMMapSize int64  `json:"min_mmap_size"`
}

// ArchiveConfig configures archive mounting.
type ArchiveConfig struct {
	MaxMounts int      `json:"max_mounts"`
	Suffixes  []string `json:"suffixes"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Logger converts the section to a logger.Config.
func (l LogConfig) Logger() logger.Config {
	return logger.Config{Level: l.Level, Format: l.Format, OutputPath: l.Path}
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Workers:    runtime.NumCPU(),
			BufferSize: 1000,
		},
		Checksum: ChecksumConfig{
			Algorithm:   checksum.DefaultAlgorithm,
			Workers:     runtime.NumCPU(),
			UseMMap:     true,
			MinMMapSize: 1 << 20,
		},
		Archive: ArchiveConfig{
			MaxMounts: archive.DefaultMaxMounts,
			Suffixes:  []string{".zip", ".jar"},
		},
		Locale: "en",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
