package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/beanbocchi/blobfs/pkg/validator"
)

// EnvPrefix prefixes every environment override, e.g. BLOBFS_FILESTORE_TYPE.
const EnvPrefix = "BLOBFS"

var (
	once   sync.Once
	config *Config
)

// GetConfig loads the configuration named by $BLOBFS_CONFIG (default
// config.yaml) on first use and panics if it is invalid.
func GetConfig() *Config {
	once.Do(func() {
		path := os.Getenv(EnvPrefix + "_CONFIG")
		if path == "" {
			path = "config.yaml"
		}

		cfg, err := Load(path)
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		config = cfg
	})
	return config
}

// Load reads a configuration file, applies environment overrides and
// validates the result. A missing file is not an error: defaults and the
// environment are used alone. Files ending in .properties are resolved
// through a PropertiesLoader rooted at the file's directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if _, err := cfg.Filestore.ChunkSizeBytes(); err != nil {
		return nil, err
	}
	if _, err := cfg.Filestore.Cache.MaxSizeBytes(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readFile(v *viper.Viper, path string) error {
	if filepath.Ext(path) == ".properties" {
		loader := NewPropertiesLoader(filepath.Dir(path))
		props, err := loader.Load(filepath.Base(path))
		if err != nil {
			if IsResourceNotFound(err) {
				return nil
			}
			return err
		}
		if err := v.MergeConfigMap(nest(props)); err != nil {
			return fmt.Errorf("merge properties: %w", err)
		}
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// nest turns dotted property keys into the nested maps viper merges.
func nest(props map[string]string) map[string]any {
	out := make(map[string]any)
	for key, value := range props {
		parts := strings.Split(key, ".")
		m := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := m[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				m[part] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addSource", false)
	v.SetDefault("app.name", "blobfs")
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("app.detectContentType", true)
	v.SetDefault("database.path", "blobfs.db")

	v.SetDefault("filestore.type", "local")
	v.SetDefault("filestore.chunkSize", "5MiB")
	v.SetDefault("filestore.tempDir", "")
	v.SetDefault("filestore.pageSize", 0)
	v.SetDefault("filestore.lockKeys", false)
	v.SetDefault("filestore.local.root", "./data")
	v.SetDefault("filestore.s3.bucket", "")
	v.SetDefault("filestore.s3.region", "")
	v.SetDefault("filestore.s3.endpoint", "")
	v.SetDefault("filestore.s3.accessKeyID", "")
	v.SetDefault("filestore.s3.secretAccessKey", "")
	v.SetDefault("filestore.s3.forcePathStyle", false)
	v.SetDefault("filestore.minio.endpoint", "")
	v.SetDefault("filestore.minio.bucket", "")
	v.SetDefault("filestore.minio.region", "")
	v.SetDefault("filestore.minio.accessKeyID", "")
	v.SetDefault("filestore.minio.secretAccessKey", "")
	v.SetDefault("filestore.minio.useSSL", false)
	v.SetDefault("filestore.storj.accessGrant", "")
	v.SetDefault("filestore.storj.bucket", "")
	v.SetDefault("filestore.cache.enabled", false)
	v.SetDefault("filestore.cache.root", "")
	v.SetDefault("filestore.cache.maxSize", "")
}

// ChunkSizeBytes parses ChunkSize. Parts must be at least 1 byte and fit in an int.
func (f Filestore) ChunkSizeBytes() (int, error) {
	n, err := humanize.ParseBytes(f.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("parse chunk size %q: %w", f.ChunkSize, err)
	}
	if n == 0 || n > 1<<32 {
		return 0, fmt.Errorf("chunk size %q out of range", f.ChunkSize)
	}
	return int(n), nil
}

// MaxSizeBytes parses MaxSize; empty means no limit and returns 0.
func (c Cache) MaxSizeBytes() (int64, error) {
	if c.MaxSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("parse cache max size %q: %w", c.MaxSize, err)
	}
	return int64(n), nil
}
