package xcalllog

import (
	"log/slog"
	"strings"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// UnknownErrorCode 错误消息中没有错误码时使用。
const UnknownErrorCode = "0"

// ErrorCode 从 "<code>: <message>" 格式的错误消息中取出错误码。
func ErrorCode(message string) string {
	code, _, ok := strings.Cut(message, ": ")
	if !ok || code == "" || strings.ContainsAny(code, " \t") {
		return UnknownErrorCode
	}
	return code
}

// redactedParams 返回凭证已遮蔽的参数副本。
func redactedParams(params xapi.Params) xapi.Params {
	out := params.Clone()
	for k := range out {
		if xlog.IsCredentialKey(k) {
			out[k] = xlog.Redacted
		}
	}
	return out
}

// paramsAttr 以分组形式输出参数，键按字典序。
func paramsAttr(params xapi.Params) slog.Attr {
	redacted := redactedParams(params)
	attrs := make([]any, 0, len(redacted))
	for _, k := range redacted.Keys() {
		attrs = append(attrs, slog.String(k, redacted[k]))
	}
	return slog.Group(xlog.KeyParams, attrs...)
}
