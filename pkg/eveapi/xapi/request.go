package xapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
	"github.com/omeyang/xeveapi/pkg/eveapi/xresult"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
	"github.com/omeyang/xeveapi/pkg/observability/xmetrics"
)

// 观测常量。
const (
	MetricsComponent = "xeveapi"
	MetricsOpInvoke  = "Invoke"

	MetricsAttrScope    = "eve.scope"
	MetricsAttrMethod   = "eve.method"
	MetricsAttrCacheHit = "eve.cache_hit"
)

// urlExtension API 方法的路径后缀。
const urlExtension = ".xml.aspx"

// Invoke 执行一次调用：
//
//	清洗参数 → 访问检查 → 查缓存 → {命中 | 限流+请求} → 解析 → 分类 → 日志/归档/缓存 → 返回
//
// 返回的 Result 可能是应用错误（Result.IsError()），此时 err 为 nil。
// 失败按 Kind 区分：传输失败（KindConnection/KindHTTPStatus）原样返回，
// 访问拒绝为 KindAccessDenied，XML 非法为 KindParse，其余为包装了原因的 KindGeneric。
func (c *Client) Invoke(ctx context.Context, scope, method string, params Params) (res *xresult.Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if scope == "" {
		return nil, ErrMissingScope
	}
	if method == "" {
		return nil, ErrMissingMethod
	}

	sess := c.snapshot()
	clean := SanitizeParams(params)
	id := Identity{KeyID: sess.keyID, VCode: sess.vCode, Scope: scope, Method: method, Params: clean}
	target := c.cfg.BaseURL + scope + "/" + method + urlExtension
	httpParams := InjectCredentials(clean, sess.keyID, sess.vCode, c.cfg.UseCustomKeys())

	if cctx, cerr := xctx.WithCall(ctx, xctx.Call{KeyID: sess.keyID, Scope: scope, Method: method}); cerr == nil {
		ctx = cctx
	}
	cacheHit := false
	ctx, span := xmetrics.Start(ctx, c.opts.Observer, xmetrics.SpanOptions{
		Component: MetricsComponent,
		Operation: MetricsOpInvoke,
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String(MetricsAttrScope, scope),
			xmetrics.String(MetricsAttrMethod, method),
		},
	})
	defer func() {
		span.End(xmetrics.Result{
			Err:   err,
			Attrs: []xmetrics.Attr{xmetrics.Bool(MetricsAttrCacheHit, cacheHit)},
		})
	}()

	call := &invocation{client: c, ctx: ctx, id: id}

	if err = call.checkAccess(sess); err != nil {
		return nil, err
	}

	if raw := call.loadCache(); len(raw) > 0 {
		cacheHit = true
		c.setLastRaw(raw)
		return call.parse(raw)
	}

	raw, err := call.fetch(target, httpParams)
	if err != nil {
		return nil, err
	}
	c.setLastRaw(raw)
	res, err = call.parse(raw)
	if err != nil {
		return nil, err
	}
	if err = call.store(res); err != nil {
		return nil, err
	}
	return res, nil
}

// invocation 单次调用的执行上下文。
type invocation struct {
	client *Client
	ctx    context.Context
	id     Identity
}

// errorLog 以 "<code>: <message>" 写入调用错误日志。
func (v *invocation) errorLog(err error) {
	v.client.opts.CallLog.ErrorLog(v.ctx, v.id.Scope, v.id.Method, v.id.Params, errorLogMessage(err))
}

// checkAccess 仅在 custom keys、key ID、vCode 与已知 key 类型都存在时检查。
func (v *invocation) checkAccess(sess session) error {
	if !v.client.cfg.UseCustomKeys() || sess.keyID == "" || sess.vCode == "" || !sess.access.Known() {
		return nil
	}
	err := v.client.opts.Access.Check(v.id.Scope, v.id.Method, sess.access.KeyType, sess.access.AccessMask)
	if err == nil {
		return nil
	}
	if KindOf(err) != KindAccessDenied {
		denied := NewAccessDeniedError(v.id.Scope, v.id.Method, err.Error())
		denied.Err = err
		err = denied
	}
	v.errorLog(err)
	return err
}

// loadCache 读取缓存。读取失败记录告警并按未命中处理。
func (v *invocation) loadCache() []byte {
	raw, err := v.client.opts.Cache.Load(v.ctx, v.id)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			v.client.opts.Logger.WarnContext(v.ctx, "xapi: cache load failed",
				slog.String("identity", v.id.String()),
				xlog.Err(err),
			)
		}
		return nil
	}
	return raw
}

// fetch 在 CallLog.Start/Stop 之间执行限流与请求。
// 传输失败原样返回，其余失败包装为 KindGeneric；两种情况都写错误日志。
func (v *invocation) fetch(target string, params Params) ([]byte, error) {
	opts := v.client.opts
	opts.CallLog.Start(v.ctx)
	raw, err := v.doFetch(target, params)
	opts.CallLog.Stop(v.ctx)
	if err == nil {
		return raw, nil
	}
	v.errorLog(err)
	if IsTransport(err) {
		return nil, err
	}
	return nil, newGenericError(err)
}

func (v *invocation) doFetch(target string, params Params) ([]byte, error) {
	if err := v.client.opts.RateLimiter.RateLimit(v.ctx); err != nil {
		return nil, err
	}
	return v.client.fetcher.Fetch(v.ctx, target, params)
}

func (v *invocation) parse(raw []byte) (*xresult.Result, error) {
	res, err := xresult.Parse(raw)
	if err != nil {
		perr := newParseError(err)
		v.errorLog(perr)
		return nil, perr
	}
	return res, nil
}

// store 执行分类后的副作用：应用错误只写错误日志，成功写调用日志与归档；两者都写缓存。
// 归档失败只记录错误日志，不影响缓存写入与返回结果；缓存写入失败作为调用失败返回。
func (v *invocation) store(res *xresult.Result) error {
	opts := v.client.opts
	raw := res.Raw()
	if appErr := ApplicationError(res); appErr != nil {
		v.errorLog(appErr)
	} else {
		opts.CallLog.Log(v.ctx, v.id.Scope, v.id.Method, v.id.Params)
		if err := opts.Archive.Save(v.ctx, v.id, raw); err != nil {
			v.errorLog(err)
			opts.Logger.WarnContext(v.ctx, "xeveapi: archive save failed", xlog.Err(err))
		}
	}
	if err := opts.Cache.Save(v.ctx, v.id, raw); err != nil {
		v.errorLog(err)
		return newGenericError(err)
	}
	return nil
}

// errorLogMessage 返回 "<code>: <message>"。
func errorLogMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = e.Error()
		}
		return e.code() + ": " + msg
	}
	return errorCode(err) + ": " + err.Error()
}
