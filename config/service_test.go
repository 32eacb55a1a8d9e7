package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadService_Defaults(t *testing.T) {
	cfg, err := LoadService("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, SourceMongo, cfg.Source.Kind)
	assert.Equal(t, 10, cfg.Recommend.DefaultN)
	assert.Equal(t, CacheMemory, cfg.Cache.Kind)
}

func TestLoadService_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":8080"
source:
  kind: file
  reload_interval: 5m
  file:
    path: /data/snapshot.json
cache:
  kind: none
recommend:
  default_n: 5
`), 0o644))

	t.Setenv("STORYREC_LOG_LEVEL", "debug")
	t.Setenv("STORYREC_DEFAULT_N", "7")
	t.Setenv("STORYREC_UNRELATED", "x")

	cfg, err := LoadService(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, "/data/snapshot.json", cfg.Source.File.Path)
	assert.Equal(t, 5*time.Minute, cfg.Source.ReloadInterval)
	assert.Equal(t, CacheNone, cfg.Cache.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Recommend.DefaultN, "env overrides file")
}

func TestLoadService_MissingFile(t *testing.T) {
	_, err := LoadService(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServiceConfig)
		wantErr string
	}{
		{name: "ok", mutate: func(c *ServiceConfig) {}},
		{name: "bad source", mutate: func(c *ServiceConfig) { c.Source.Kind = "s3" }, wantErr: "source.kind"},
		{name: "file without path", mutate: func(c *ServiceConfig) { c.Source.Kind = SourceFile }, wantErr: "source.file.path"},
		{name: "bad cache", mutate: func(c *ServiceConfig) { c.Cache.Kind = "memcached" }, wantErr: "cache.kind"},
		{name: "zero default n", mutate: func(c *ServiceConfig) { c.Recommend.DefaultN = 0 }, wantErr: "default_n"},
		{name: "bad log format", mutate: func(c *ServiceConfig) { c.Log.Format = "xml" }, wantErr: "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultServiceConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadService_ShippedConfig(t *testing.T) {
	cfg, err := LoadService("../configs/storyrec.yaml")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Source.ReloadInterval)
	assert.Equal(t, "configs/pipeline.yaml", cfg.Pipeline.Path)
	assert.Equal(t, 100, cfg.Recommend.MaxN)
}
