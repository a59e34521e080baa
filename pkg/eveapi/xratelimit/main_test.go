package xratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/internal/pool.(*ConnPool).tryDial"),
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/maintnotifications.(*CircuitBreakerManager).cleanupLoop"),
		goleak.IgnoreTopFunction("time.Sleep"),
	)
}

func keyContext(t *testing.T, keyID string) context.Context {
	t.Helper()
	ctx, err := xctx.WithCall(context.Background(), xctx.Call{KeyID: keyID})
	require.NoError(t, err)
	return ctx
}
