package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"filecrawl/internal/checksum"
)

// Validate checks config values for correctness.
func (c *Config) Validate() error {
	var errs []string

	if c.Search.Workers < 1 {
		errs = append(errs, "search.workers must be >= 1")
	}
	if c.Search.BufferSize < 1 {
		errs = append(errs, "search.buffer_size must be >= 1")
	}
	if c.Search.TimeoutSeconds < 0 {
		errs = append(errs, "search.timeout_seconds must be >= 0")
	}

	if !checksum.Supported(c.Checksum.Algorithm) {
		errs = append(errs, fmt.Sprintf("checksum.algorithm %q is not supported", c.Checksum.Algorithm))
	}
	if c.Checksum.Workers < 1 {
		errs = append(errs, "checksum.workers must be >= 1")
	}
	if c.Checksum.MinMMapSize < 1 {
		errs = append(errs, "checksum.min_mmap_size must be >= 1")
	}

	if c.Archive.MaxMounts < 1 {
		errs = append(errs, "archive.max_mounts must be >= 1")
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("locale %q is invalid", c.Locale))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, "log.format must be json or console")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
