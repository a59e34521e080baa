package xcalllog

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

const (
	// MetricCallTotal 调用计数，带 scope/method/status 属性。
	MetricCallTotal = "xeveapi.call.total"
	// MetricRequestDuration 网络请求耗时（秒），带 scope/method 属性。
	MetricRequestDuration = "xeveapi.request.duration"

	// StatusOK 成功调用的 status 属性值。
	StatusOK = "ok"
	// StatusError 失败调用的 status 属性值。
	StatusError = "error"

	defaultMeterName = "github.com/omeyang/xeveapi/xcalllog"
)

// ErrCreateInstrument 表示创建指标失败。
var ErrCreateInstrument = errors.New("xcalllog: create instrument")

// OTel 把调用记录为 OpenTelemetry 指标。
type OTel struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	timer    *timer
}

// NewOTel 使用 provider 创建指标，provider 为 nil 时使用全局 MeterProvider。
func NewOTel(provider metric.MeterProvider) (*OTel, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(defaultMeterName)
	calls, err := meter.Int64Counter(MetricCallTotal,
		metric.WithDescription("eveapi calls by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateInstrument, err)
	}
	duration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("eveapi request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateInstrument, err)
	}
	return &OTel{calls: calls, duration: duration, timer: newTimer(nil)}, nil
}

// Start 开始计时。
func (o *OTel) Start(ctx context.Context) {
	o.timer.start(ctx)
}

// Stop 记录请求耗时，scope/method 取自 context。
func (o *OTel) Stop(ctx context.Context) {
	d, ok := o.timer.stop(ctx)
	if !ok {
		return
	}
	o.timer.take(ctx)
	o.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(KeyScope, xctx.Scope(ctx)),
		attribute.String(KeyMethod, xctx.Method(ctx)),
	))
}

// Log 计数一次成功调用。
func (o *OTel) Log(ctx context.Context, scope, method string, _ xapi.Params) {
	o.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyScope, scope),
		attribute.String(KeyMethod, method),
		attribute.String("status", StatusOK),
	))
}

// ErrorLog 计数一次失败调用。
func (o *OTel) ErrorLog(ctx context.Context, scope, method string, _ xapi.Params, message string) {
	o.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyScope, scope),
		attribute.String(KeyMethod, method),
		attribute.String("status", StatusError),
		attribute.String(KeyErrorCode, ErrorCode(message)),
	))
}

var _ xapi.CallLog = (*OTel)(nil)
