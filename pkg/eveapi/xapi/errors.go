package xapi

import (
	"errors"
	"fmt"
	"strconv"
)

// =============================================================================
// 参数与配置错误
// =============================================================================

var (
	// ErrNilConfig 表示传入的配置为 nil。
	ErrNilConfig = errors.New("xapi: nil config")

	// ErrMissingBaseURL 表示 API 根地址未配置。
	ErrMissingBaseURL = errors.New("xapi: missing base_url")

	// ErrInvalidBaseURL 表示 API 根地址格式无效。
	ErrInvalidBaseURL = errors.New("xapi: invalid base_url: must include scheme and host")

	// ErrInvalidTimeout 表示超时配置无效。
	ErrInvalidTimeout = errors.New("xapi: invalid timeout")

	// ErrInvalidInterfaceIP 表示出口 IP 不是合法地址。
	ErrInvalidInterfaceIP = errors.New("xapi: invalid interface_ip")

	// ErrMissingScope 表示调用时 scope 为空。
	ErrMissingScope = errors.New("xapi: missing scope")

	// ErrMissingMethod 表示调用时方法名为空。
	ErrMissingMethod = errors.New("xapi: missing method")

	// ErrResponseTooLarge 表示响应体超过大小上限。
	ErrResponseTooLarge = errors.New("xapi: response body exceeds maximum size limit")
)

// =============================================================================
// 流程信号
// =============================================================================

var (
	// ErrCacheMiss 缓存未命中，CacheStore.Load 可返回它或 (nil, nil)。
	ErrCacheMiss = errors.New("xapi: cache miss")

	// ErrDetectSkipped DetectAccess 前置条件不满足（缺少 key ID、vCode 或未启用 custom keys），
	// 未发起任何请求。
	ErrDetectSkipped = errors.New("xapi: access detection skipped")
)

// =============================================================================
// 分类错误
// =============================================================================

// Kind 错误分类。
type Kind int

const (
	// KindGeneric 库内部的通用失败，Err 保留原始原因。
	KindGeneric Kind = iota
	// KindConnection 无法获得 HTTP 响应（DNS、TCP、TLS、超时）。
	KindConnection
	// KindHTTPStatus 收到不可恢复的 HTTP 状态码。
	KindHTTPStatus
	// KindAccessDenied 访问策略拒绝了调用。
	KindAccessDenied
	// KindParse 响应体不是合法 XML。
	KindParse
	// KindApplication 服务端在响应体中返回 <error>；只作为值出现，Invoke 不返回此类错误。
	KindApplication
)

// String 返回 Kind 的可读名称。
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindConnection:
		return "connection"
	case KindHTTPStatus:
		return "http_status"
	case KindAccessDenied:
		return "access_denied"
	case KindParse:
		return "parse"
	case KindApplication:
		return "application"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// 与 Kind 一一对应的哨兵错误，用于 errors.Is 匹配。
// ErrGeneric 同时匹配 KindGeneric 与 KindParse（两者都是库内部失败）。
var (
	ErrGeneric      = errors.New("xapi: generic failure")
	ErrConnection   = errors.New("xapi: connection failure")
	ErrHTTPStatus   = errors.New("xapi: unexpected http status")
	ErrAccessDenied = errors.New("xapi: access denied")
	ErrParse        = errors.New("xapi: xml parse failure")
	ErrApplication  = errors.New("xapi: application error")
)

// Error 带分类的错误。
type Error struct {
	Kind Kind

	// StatusCode HTTP 状态码（KindHTTPStatus）。
	StatusCode int

	// URL 请求地址（KindConnection、KindHTTPStatus）。
	URL string

	// Code 应用错误码（KindApplication）或失败原因的错误码。
	Code string

	// Message 人类可读信息。
	Message string

	// Err 原始原因。
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("xapi: http status %d for %s", e.StatusCode, e.URL)
	case KindConnection:
		if e.Err != nil {
			return fmt.Sprintf("xapi: connection failure for %s: %v", e.URL, e.Err)
		}
		return "xapi: connection failure for " + e.URL
	case KindApplication:
		return fmt.Sprintf("xapi: application error %s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return "xapi: " + e.Message
	}
	if e.Err != nil {
		return "xapi: " + e.Err.Error()
	}
	return "xapi: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrConnection) 等按 Kind 匹配。
func (e *Error) Is(target error) bool {
	switch target {
	case ErrGeneric:
		return e.Kind == KindGeneric || e.Kind == KindParse
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrHTTPStatus:
		return e.Kind == KindHTTPStatus
	case ErrAccessDenied:
		return e.Kind == KindAccessDenied
	case ErrParse:
		return e.Kind == KindParse
	case ErrApplication:
		return e.Kind == KindApplication
	}
	return false
}

// code 返回错误码：应用错误码、HTTP 状态码，否则为 "0"。
// 用于错误日志的 "<code>: <message>" 格式。
func (e *Error) code() string {
	switch {
	case e.Code != "":
		return e.Code
	case e.StatusCode != 0:
		return strconv.Itoa(e.StatusCode)
	default:
		return "0"
	}
}

// =============================================================================
// 构造函数
// =============================================================================

// NewConnectionError 创建连接错误。
func NewConnectionError(url string, err error) *Error {
	return &Error{Kind: KindConnection, URL: url, Err: err}
}

// NewHTTPStatusError 创建 HTTP 状态码错误。
func NewHTTPStatusError(statusCode int, url string) *Error {
	return &Error{Kind: KindHTTPStatus, StatusCode: statusCode, URL: url}
}

// NewAccessDeniedError 创建访问拒绝错误。
func NewAccessDeniedError(scope, method, reason string) *Error {
	return &Error{
		Kind:    KindAccessDenied,
		Message: fmt.Sprintf("access denied for %s/%s: %s", scope, method, reason),
	}
}

// NewApplicationError 创建应用错误值。
func NewApplicationError(code, message string) *Error {
	return &Error{Kind: KindApplication, Code: code, Message: message}
}

// newParseError 包装 XML 解析失败。
func newParseError(err error) *Error {
	return &Error{Kind: KindParse, Message: "XML Parser Error: " + err.Error(), Err: err}
}

// newGenericError 包装其它失败，保留原始原因。
func newGenericError(err error) *Error {
	return &Error{Kind: KindGeneric, Message: "Original exception: " + err.Error(), Err: err}
}

// =============================================================================
// 判定函数
// =============================================================================

// KindOf 返回 err 的分类；非 *Error 返回 KindGeneric。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsTransport 报告 err 是否为传输层失败（连接或 HTTP 状态码）。
func IsTransport(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindConnection || e.Kind == KindHTTPStatus
}

// errorCode 返回用于错误日志的错误码。
func errorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code()
	}
	return "0"
}
