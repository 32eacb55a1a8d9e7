package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是服务配置的环境变量前缀
const EnvPrefix = "STORYREC_"

// 快照来源与缓存后端
const (
	SourceMongo = "mongo"
	SourceFile  = "file"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ServiceConfig 是 storyrec 服务的配置。
// 加载顺序（后者覆盖前者）：默认值 → YAML 文件 → STORYREC_ 环境变量。
type ServiceConfig struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Source    SourceConfig    `koanf:"source"`
	Cache     CacheConfig     `koanf:"cache"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Recommend RecommendConfig `koanf:"recommend"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AdminToken      string        `koanf:"admin_token"` // 非空时 /admin/* 需要 Bearer token
}

type LogConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json 或 console
}

type SourceConfig struct {
	Kind           string        `koanf:"kind"`            // mongo 或 file
	ReloadInterval time.Duration `koanf:"reload_interval"` // 0 表示只在启动和 /admin/reload 时构建
	Mongo          MongoConfig   `koanf:"mongo"`
	File           FileConfig    `koanf:"file"`
}

type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

type FileConfig struct {
	Path string `koanf:"path"`
}

type CacheConfig struct {
	Kind       string      `koanf:"kind"` // memory, redis 或 none
	TTLSeconds int         `koanf:"ttl_seconds"`
	Redis      RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
	DB   int    `koanf:"db"`
}

type PipelineConfig struct {
	Path string `koanf:"path"` // 为空时使用内置 Pipeline
}

type RecommendConfig struct {
	DefaultN int `koanf:"default_n"`
	MaxN     int `koanf:"max_n"`
}

// DefaultServiceConfig 返回默认配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		HTTP: HTTPConfig{
			Addr:            ":5000",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Source: SourceConfig{
			Kind: SourceMongo,
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "storybook",
				Timeout:  30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Kind:       CacheMemory,
			TTLSeconds: 300,
			Redis:      RedisConfig{Addr: "localhost:6379"},
		},
		Recommend: RecommendConfig{DefaultN: 10, MaxN: 100},
	}
}

// LoadService 按 默认值 → path（可为空）→ 环境变量 的顺序加载并校验配置。
func LoadService(path string) (*ServiceConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultServiceConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &ServiceConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envMappings 把去掉前缀后的环境变量名映射到配置路径，未列出的变量被忽略。
//
//	STORYREC_MONGO_URI -> source.mongo.uri
var envMappings = map[string]string{
	"http_addr":             "http.addr",
	"http_shutdown_timeout": "http.shutdown_timeout",
	"admin_token":           "http.admin_token",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"source":                "source.kind",
	"reload_interval":       "source.reload_interval",
	"mongo_uri":             "source.mongo.uri",
	"mongo_database":        "source.mongo.database",
	"mongo_timeout":         "source.mongo.timeout",
	"snapshot_path":         "source.file.path",
	"cache":                 "cache.kind",
	"cache_ttl_seconds":     "cache.ttl_seconds",
	"redis_addr":            "cache.redis.addr",
	"redis_db":              "cache.redis.db",
	"pipeline_path":         "pipeline.path",
	"default_n":             "recommend.default_n",
	"max_n":                 "recommend.max_n",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

// Validate 校验配置
func (c *ServiceConfig) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	switch c.Source.Kind {
	case SourceMongo:
		if c.Source.Mongo.URI == "" || c.Source.Mongo.Database == "" {
			errs = append(errs, errors.New("source.mongo.uri and source.mongo.database are required"))
		}
	case SourceFile:
		if c.Source.File.Path == "" {
			errs = append(errs, errors.New("source.file.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind must be mongo or file, got %q", c.Source.Kind))
	}
	if c.Source.ReloadInterval < 0 {
		errs = append(errs, errors.New("source.reload_interval must not be negative"))
	}

	switch c.Cache.Kind {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind must be memory, redis or none, got %q", c.Cache.Kind))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must not be negative"))
	}

	if c.Recommend.DefaultN <= 0 {
		errs = append(errs, errors.New("recommend.default_n must be positive"))
	}
	if c.Recommend.MaxN < c.Recommend.DefaultN {
		errs = append(errs, errors.New("recommend.max_n must be >= recommend.default_n"))
	}
	return errors.Join(errs...)
}
