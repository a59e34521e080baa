package xlog

import (
	"log/slog"
	"strings"
	"time"
)

// 常用属性 Key
const (
	KeyError      = "error"
	KeyDuration   = "duration"
	KeyComponent  = "component"
	KeyURL        = "url"
	KeyStatusCode = "status_code"
	KeyParams     = "params"
)

// Redacted 凭证字段被替换后的值。
const Redacted = "***"

// Err 创建错误属性，nil 错误返回空字符串值。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 创建组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// credentialKeys 需要脱敏的字段名（小写）。
var credentialKeys = map[string]struct{}{
	"vcode":  {},
	"apikey": {},
}

// IsCredentialKey 判断字段名是否为凭证（大小写不敏感）。
func IsCredentialKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(key)]
	return ok
}

// RedactCredentials 是 ReplaceAttrFunc，遮蔽 vCode/apiKey 字段的值，
// 对任意分组深度生效。
func RedactCredentials(_ []string, a slog.Attr) slog.Attr {
	if IsCredentialKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}
