package xcache

import (
	"time"

	"github.com/omeyang/xeveapi/pkg/eveapi/xresult"
)

// Policy 决定一份原始响应的缓存时长。
type Policy struct {
	// TTL 大于零时固定使用该时长，忽略响应自带的缓存窗口。
	TTL time.Duration

	// Default 在响应没有 cachedUntil/currentTime 时使用。
	// 为零表示此类响应不缓存。
	Default time.Duration

	// ErrorTTL 控制应用层错误响应的缓存时长：
	//   - 大于零：使用该时长
	//   - 等于零：与普通响应相同的规则
	//   - 小于零：不缓存错误响应
	ErrorTTL time.Duration
}

// For 返回 raw 应缓存的时长，小于等于零表示不缓存。
// 无法解析的响应不缓存。
func (p Policy) For(raw []byte) time.Duration {
	res, err := xresult.Parse(raw)
	if err != nil {
		return 0
	}
	if res.IsError() && p.ErrorTTL != 0 {
		return p.ErrorTTL
	}
	if p.TTL > 0 {
		return p.TTL
	}
	if window, ok := res.CacheWindow(); ok {
		return window
	}
	return p.Default
}
