package config

import (
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

const defaultPath = "/home/user/.config/filecrawl/config.json"

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	loader := NewLoaderWithFS(&MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}})

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)
	assert.Equal(t, 1000, cfg.Search.BufferSize)
	assert.Equal(t, "sha256", cfg.Checksum.Algorithm)
	assert.Equal(t, int64(1<<20), cfg.Checksum.MinMMapSize)
	assert.Equal(t, 64, cfg.Archive.MaxMounts)
	assert.Equal(t, []string{".zip", ".jar"}, cfg.Archive.Suffixes)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_NoHomeDir_ReturnsDefaults(t *testing.T) {
	loader := NewLoaderWithFS(&MockFileSystem{HomeDirErr: errors.New("no home")})

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialOverride(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{defaultPath: []byte(`{
			"search": {"workers": 2, "exclude_dirs": ["node_modules"], "timeout_seconds": 30},
			"checksum": {"algorithm": "blake3", "use_mmap": false},
			"locale": "de"
		}`)},
	}

	cfg, err := NewLoaderWithFS(fs).Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Search.Workers)
	assert.Equal(t, 1000, cfg.Search.BufferSize, "missing keys keep defaults")
	assert.Equal(t, []string{"node_modules"}, cfg.Search.ExcludeDirs)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout())
	assert.Equal(t, "blake3", cfg.Checksum.Algorithm)
	assert.False(t, cfg.Checksum.UseMMap, "explicit false overrides the default")
	assert.Equal(t, "de", cfg.Locale)
}

func TestLoad_ExplicitPath(t *testing.T) {
	fs := &MockFileSystem{Files: map[string][]byte{"/etc/fc.json": []byte(`{"archive": {"max_mounts": 8}}`)}}

	cfg, err := NewLoaderWithFS(fs).Load("/etc/fc.json")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Archive.MaxMounts)

	_, err = NewLoaderWithFS(fs).Load("/etc/missing.json")
	assert.ErrorIs(t, err, os.ErrNotExist, "an explicit file must exist")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		fs   *MockFileSystem
	}{
		{"malformed json", &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{defaultPath: []byte(`{"search":`)}}},
		{"permission denied", &MockFileSystem{HomeDir: "/home/user", ReadFileErr: os.ErrPermission}},
		{"invalid values", &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{defaultPath: []byte(`{"search": {"workers": 0}}`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoaderWithFS(tt.fs).Load("")
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
