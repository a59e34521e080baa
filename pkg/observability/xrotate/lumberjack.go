package xrotate

import (
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/omeyang/xeveapi/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotator 日志轮转器，并发安全。
// Close 之后 Write 与 Rotate 返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 关闭当前文件并开始新文件。
	Rotate() error
}

// 默认配置
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30

	maxSizeMB = 10240
)

// Config 轮转配置，可直接由 koanf 反序列化。
type Config struct {
	MaxSizeMB  int  `koanf:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days"`
	Compress   bool `koanf:"compress"`
	LocalTime  bool `koanf:"local_time"`
}

// Option 轮转配置选项
type Option func(*Config)

// WithMaxSize 设置单个文件最大大小（MB）。
func WithMaxSize(mb int) Option { return func(c *Config) { c.MaxSizeMB = mb } }

// WithMaxBackups 设置保留的备份数量，0 表示不限制。
func WithMaxBackups(n int) Option { return func(c *Config) { c.MaxBackups = n } }

// WithMaxAge 设置备份保留天数，0 表示不按天数清理。
func WithMaxAge(days int) Option { return func(c *Config) { c.MaxAgeDays = days } }

// WithCompress 设置是否 gzip 压缩备份。
func WithCompress(compress bool) Option { return func(c *Config) { c.Compress = compress } }

// WithConfig 用完整配置覆盖，零值字段保留默认值。
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		if cfg.MaxSizeMB != 0 {
			c.MaxSizeMB = cfg.MaxSizeMB
		}
		if cfg.MaxBackups != 0 {
			c.MaxBackups = cfg.MaxBackups
		}
		if cfg.MaxAgeDays != 0 {
			c.MaxAgeDays = cfg.MaxAgeDays
		}
		c.Compress = cfg.Compress
		c.LocalTime = cfg.LocalTime
	}
}

type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的轮转器，自动创建父目录。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := Config{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.MaxSizeMB <= 0 || cfg.MaxSizeMB > maxSizeMB {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxSize, cfg.MaxSizeMB)
	}
	if cfg.MaxBackups < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxBackups, cfg.MaxBackups)
	}
	if cfg.MaxAgeDays < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxAge, cfg.MaxAgeDays)
	}

	path := filepath.Clean(filename)
	if err := xfile.EnsureDir(path); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
	}, nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return r.logger.Write(p)
}

// Close 关闭轮转器，重复调用返回 ErrClosed。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.logger.Rotate()
}
