package xarchive

import (
	"os"
	"time"
)

const (
	// DefaultFileMode 归档文件权限。
	DefaultFileMode os.FileMode = 0o640

	// DefaultContentType S3 对象的 Content-Type。
	DefaultContentType = "application/xml"
)

// Options 归档后端的公共配置。
type Options struct {
	// Now 归档时间来源，默认 time.Now。
	Now func() time.Time

	// FileMode 仅 File 使用。
	FileMode os.FileMode

	// KeyPrefix 仅 S3 使用，拼接在 Path 之前。
	KeyPrefix string
}

// Option 配置归档后端。
type Option func(*Options)

func applyOptions(opts []Option) *Options {
	o := &Options{Now: time.Now, FileMode: DefaultFileMode}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithClock 设置时间来源，nil 被忽略。
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithFileMode 设置归档文件权限，0 被忽略。
func WithFileMode(mode os.FileMode) Option {
	return func(o *Options) {
		if mode != 0 {
			o.FileMode = mode
		}
	}
}

// WithKeyPrefix 设置 S3 对象键前缀，例如 "eveapi/"。
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
	}
}
