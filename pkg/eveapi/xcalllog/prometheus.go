package xcalllog

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// DefaultNamespace Prometheus 指标命名空间。
const DefaultNamespace = "xeveapi"

// Prometheus 把调用记录为 Prometheus 指标：
//
//	xeveapi_calls_total{scope,method,status,error_code}
//	xeveapi_request_duration_seconds{scope,method}
type Prometheus struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	timer    *timer
}

// NewPrometheus 创建指标并注册到 reg，reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	p := &Prometheus{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "eveapi calls by outcome.",
		}, []string{KeyScope, KeyMethod, "status", KeyErrorCode}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "eveapi request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{KeyScope, KeyMethod}),
		timer: newTimer(nil),
	}
	for _, c := range []prometheus.Collector{p.calls, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("xcalllog: register prometheus collector: %w", err)
		}
	}
	return p, nil
}

// Start 开始计时。
func (p *Prometheus) Start(ctx context.Context) {
	p.timer.start(ctx)
}

// Stop 记录请求耗时，scope/method 取自 context。
func (p *Prometheus) Stop(ctx context.Context) {
	d, ok := p.timer.stop(ctx)
	if !ok {
		return
	}
	p.timer.take(ctx)
	p.duration.WithLabelValues(xctx.Scope(ctx), xctx.Method(ctx)).Observe(d.Seconds())
}

// Log 计数一次成功调用。
func (p *Prometheus) Log(_ context.Context, scope, method string, _ xapi.Params) {
	p.calls.WithLabelValues(scope, method, StatusOK, "").Inc()
}

// ErrorLog 计数一次失败调用。
func (p *Prometheus) ErrorLog(_ context.Context, scope, method string, _ xapi.Params, message string) {
	p.calls.WithLabelValues(scope, method, StatusError, ErrorCode(message)).Inc()
}

var _ xapi.CallLog = (*Prometheus)(nil)
