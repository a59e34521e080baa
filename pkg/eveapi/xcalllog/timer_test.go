package xcalllog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestTimer_PerCall(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	tm := newTimer(clock.Now)
	a := callContext(t, "a", "char", "X")
	b := callContext(t, "b", "char", "Y")

	tm.start(a)
	clock.now = clock.now.Add(time.Second)
	tm.start(b)
	clock.now = clock.now.Add(2 * time.Second)

	d, ok := tm.stop(a)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	d, ok = tm.stop(b)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	d, ok = tm.take(a)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	_, ok = tm.take(a)
	assert.False(t, ok)

	_, ok = tm.stop(context.Background())
	assert.False(t, ok)
}

func TestTimer_SharedCallID(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	tm := newTimer(clock.Now)
	base, err := xctx.WithCallID(context.Background(), "request-1")
	require.NoError(t, err)
	a, err := xctx.WithCall(base, xctx.Call{Scope: "eve", Method: "A"})
	require.NoError(t, err)
	b, err := xctx.WithCall(base, xctx.Call{Scope: "eve", Method: "B"})
	require.NoError(t, err)
	require.Equal(t, xctx.CallID(a), xctx.CallID(b))

	tm.start(a)
	clock.now = clock.now.Add(time.Second)
	tm.start(b)
	clock.now = clock.now.Add(time.Second)

	d, ok := tm.stop(a)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
	clock.now = clock.now.Add(time.Second)
	d, ok = tm.stop(b)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	_, ok = tm.take(a)
	assert.True(t, ok)
	_, ok = tm.take(b)
	assert.True(t, ok)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "203", ErrorCode("203: Authentication failure."))
	assert.Equal(t, "0", ErrorCode("0: xapi: boom"))
	assert.Equal(t, UnknownErrorCode, ErrorCode("plain message"))
	assert.Equal(t, UnknownErrorCode, ErrorCode(": empty"))
	assert.Equal(t, UnknownErrorCode, ErrorCode("two words: x"))
}
