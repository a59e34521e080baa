package xcalllog

import (
	"context"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Multi 把每次回调转发给全部实现，nil 元素被跳过。
type Multi []xapi.CallLog

func (m Multi) each(fn func(xapi.CallLog)) {
	for _, l := range m {
		if l != nil {
			fn(l)
		}
	}
}

// Start 转发。
func (m Multi) Start(ctx context.Context) {
	m.each(func(l xapi.CallLog) { l.Start(ctx) })
}

// Stop 转发。
func (m Multi) Stop(ctx context.Context) {
	m.each(func(l xapi.CallLog) { l.Stop(ctx) })
}

// Log 转发。
func (m Multi) Log(ctx context.Context, scope, method string, params xapi.Params) {
	m.each(func(l xapi.CallLog) { l.Log(ctx, scope, method, params) })
}

// ErrorLog 转发。
func (m Multi) ErrorLog(ctx context.Context, scope, method string, params xapi.Params, message string) {
	m.each(func(l xapi.CallLog) { l.ErrorLog(ctx, scope, method, params, message) })
}

var _ xapi.CallLog = Multi(nil)
