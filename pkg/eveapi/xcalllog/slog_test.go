package xcalllog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func newTestSlog(buf *bytes.Buffer, clock *stepClock) *Slog {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewSlog(logger, WithSlogClock(clock.Now))
}

func TestSlog_Log(t *testing.T) {
	var buf bytes.Buffer
	clock := &stepClock{now: time.Unix(100, 0)}
	l := newTestSlog(&buf, clock)
	ctx := callContext(t, "c1", "char", "CharacterSheet")

	l.Start(ctx)
	clock.now = clock.now.Add(250 * time.Millisecond)
	l.Stop(ctx)
	l.Log(ctx, "char", "CharacterSheet", xapi.Params{"characterID": "1", "vCode": "secret"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "eveapi request finished", lines[0]["msg"])

	call := lines[1]
	assert.Equal(t, "INFO", call["level"])
	assert.Equal(t, "eveapi call", call["msg"])
	assert.Equal(t, "char", call[KeyScope])
	assert.Equal(t, "CharacterSheet", call[KeyMethod])
	assert.Equal(t, componentName, call[xlog.KeyComponent])
	assert.Equal(t, float64(250*time.Millisecond), call[xlog.KeyDuration])
	assert.Equal(t, map[string]any{"characterID": "1", "vCode": xlog.Redacted}, call[xlog.KeyParams])
	assert.NotContains(t, buf.String(), "secret")
}

func TestSlog_ErrorLog(t *testing.T) {
	var buf bytes.Buffer
	l := newTestSlog(&buf, &stepClock{now: time.Unix(0, 0)})
	ctx := callContext(t, "c2", "account", "APIKeyInfo")

	l.ErrorLog(ctx, "account", "APIKeyInfo", xapi.Params{}, "203: Authentication failure.")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "203", lines[0][KeyErrorCode])
	assert.Equal(t, "203: Authentication failure.", lines[0][KeyMessage])
	assert.NotContains(t, lines[0], xlog.KeyDuration)
}

func TestSlog_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	l := newTestSlog(&buf, &stepClock{})
	l.Stop(callContext(t, "c3", "eve", "X"))
	assert.Empty(t, buf.String())

	assert.NotNil(t, NewSlog(nil, nil))
}

func TestSlog_ConcurrentCallsShareCallID(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlog(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	base, err := xctx.WithCallID(context.Background(), "request-1")
	require.NoError(t, err)

	var started, done sync.WaitGroup
	started.Add(2)
	for _, method := range []string{"A", "B"} {
		done.Add(1)
		go func() {
			defer done.Done()
			ctx, err := xctx.WithCall(base, xctx.Call{Scope: "eve", Method: method})
			if !assert.NoError(t, err) {
				started.Done()
				return
			}
			l.Start(ctx)
			started.Done()
			started.Wait()
			l.Stop(ctx)
			l.Log(ctx, "eve", method, nil)
		}()
	}
	done.Wait()

	var finished, calls, withDuration int
	for _, line := range decodeLines(t, &buf) {
		switch line["msg"] {
		case "eveapi request finished":
			finished++
		case "eveapi call":
			calls++
			if _, ok := line[xlog.KeyDuration]; ok {
				withDuration++
			}
		}
	}
	assert.Equal(t, 2, finished)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, withDuration)
}
