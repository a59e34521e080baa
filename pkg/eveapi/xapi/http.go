package xapi

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// maxResponseSize 最大响应体大小（10MB）。
	maxResponseSize = 10 * 1024 * 1024
)

// payloadStatuses 服务端在这些状态码下仍在响应体中返回 <error> 文档，
// 响应体按正常负载交给解析器。
var payloadStatuses = map[int]struct{}{
	http.StatusBadRequest:          {},
	http.StatusForbidden:           {},
	http.StatusInternalServerError: {},
	http.StatusServiceUnavailable:  {},
}

// IsPayloadStatus 报告 status 是否携带应用负载。
func IsPayloadStatus(status int) bool {
	_, ok := payloadStatuses[status]
	return ok
}

// =============================================================================
// HTTPFetcher
// =============================================================================

// HTTPFetcher 基于 net/http 的 Fetcher。
type HTTPFetcher struct {
	client    *http.Client
	post      bool
	userAgent string
	keepAlive time.Duration
	extra     Params
}

// HTTPFetcherOption HTTPFetcher 的可选配置。
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient 使用自定义 http.Client。
// 设置后 Config 中的 timeout、verify_peer、ca_file、interface_ip 与 keepalive 的连接层设置不再生效。
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewHTTPFetcher 按 Config 构建 HTTPFetcher。
func NewHTTPFetcher(cfg *Config, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()

	f := &HTTPFetcher{
		post:      cfg.HTTPPost,
		userAgent: cfg.userAgent(),
		keepAlive: cfg.KeepAlive,
		extra:     Params(cfg.ExtraParams).Clone(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.client != nil {
		return f, nil
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	f.client = &http.Client{Transport: transport, Timeout: cfg.Timeout}
	return f, nil
}

func newTransport(cfg *Config) (*http.Transport, error) {
	tlsConfig, err := cfg.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: cfg.Timeout, KeepAlive: cfg.KeepAlive}
	if cfg.InterfaceIP != "" {
		ip := net.ParseIP(cfg.InterfaceIP)
		if ip == nil {
			return nil, ErrInvalidInterfaceIP
		}
		dialer.LocalAddr = &net.TCPAddr{IP: ip}
	}
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: cfg.Timeout,
		MaxIdleConnsPerHost: 4,
	}
	if cfg.KeepAlive > 0 {
		t.IdleConnTimeout = cfg.KeepAlive
	} else {
		t.DisableKeepAlives = true
	}
	return t, nil
}

// Fetch 发送请求并返回响应体。url 不含查询参数，params 按 GET 查询串或 POST 表单发送。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, params Params) ([]byte, error) {
	req, err := f.newRequest(ctx, url, params)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, NewConnectionError(url, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // Close 错误无法传播

	lr := &io.LimitedReader{R: resp.Body, N: maxResponseSize + 1}
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, NewConnectionError(url, err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, maxResponseSize)
	}

	if resp.StatusCode >= http.StatusBadRequest && !IsPayloadStatus(resp.StatusCode) {
		return nil, NewHTTPStatusError(resp.StatusCode, url)
	}
	return body, nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, target string, params Params) (*http.Request, error) {
	merged := params.Clone()
	maps.Copy(merged, f.extra)
	encoded := merged.Encode()

	var (
		req *http.Request
		err error
	)
	if f.post {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u := target
		if encoded != "" {
			u += "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("xapi: create request failed: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")
	if f.keepAlive > 0 {
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Keep-Alive", strconv.Itoa(int(f.keepAlive/time.Second)))
	} else {
		req.Close = true
	}
	return req, nil
}

// Client 返回底层 HTTP 客户端。
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

var _ Fetcher = (*HTTPFetcher)(nil)
