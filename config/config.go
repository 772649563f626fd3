package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/junyoungkim22/educosmos-Btree-manager/types"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	MinPageSize        = 256
	MaxPageSize        = 65532 // slot offsets are uint16
	MinBufferPoolPages = 8
)

type Config struct {
	Storage Storage `yaml:"storage"`
	Logger  Logger  `yaml:"logger"`
}

// Storage is the configuration for the index files and the page caches in front of them
type Storage struct {
	Dir             string `yaml:"dir"`
	PageSize        int    `yaml:"page_size"`
	BufferPoolPages int    `yaml:"buffer_pool_pages"`
	PageCacheBytes  int64  `yaml:"page_cache_bytes"`   // 0 disables the disk manager read cache
	MaxPagesPerFile int64  `yaml:"max_pages_per_file"` // 0 means the whole 32-bit page number space
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `yaml:"log_level"`
	FileLogName string `yaml:"file_log_name"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAge      int    `yaml:"max_age"`
	MaxSize     int    `yaml:"max_size"`
	Compress    bool   `yaml:"compress"`
}

func Default() Config {
	return Config{
		Storage: Storage{
			Dir:             "data/indexes",
			PageSize:        types.PageSize,
			BufferPoolPages: 64,
			PageCacheBytes:  4 << 20,
		},
		Logger: Logger{
			LogLevel:   "info",
			MaxBackups: 3,
			MaxAge:     28,
			MaxSize:    100,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	s := c.Storage
	if s.PageSize < MinPageSize || s.PageSize > MaxPageSize || s.PageSize%4 != 0 {
		return errors.Wrapf(ErrInvalidConfig, "page_size %d must be a multiple of 4 in [%d, %d]",
			s.PageSize, MinPageSize, MaxPageSize)
	}
	if s.BufferPoolPages < MinBufferPoolPages {
		return errors.Wrapf(ErrInvalidConfig, "buffer_pool_pages %d is below %d", s.BufferPoolPages, MinBufferPoolPages)
	}
	if s.PageCacheBytes < 0 || s.MaxPagesPerFile < 0 {
		return errors.Wrap(ErrInvalidConfig, "page_cache_bytes and max_pages_per_file must not be negative")
	}
	if s.Dir == "" {
		return errors.Wrap(ErrInvalidConfig, "storage dir is empty")
	}
	return nil
}
