package xcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, opts ...Option) *Memory {
	t.Helper()
	m, err := NewMemory(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory_SaveLoad(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)
	id := testIdentity("CharacterSheet")

	raw, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, m.Save(ctx, id, []byte(windowXML)))
	raw, err = m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, windowXML, string(raw))

	other := id
	other.VCode = "other"
	raw, err = m.Load(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, raw)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)

	m.Delete(id)
	raw, err = m.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMemory_SkipsWithoutWindow(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)
	id := testIdentity("Skip")

	require.NoError(t, m.Save(ctx, id, []byte(noWindowXML)))
	raw, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, WithTTL(50*time.Millisecond))
	id := testIdentity("Short")

	require.NoError(t, m.Save(ctx, id, []byte(windowXML)))
	raw, err := m.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Eventually(t, func() bool {
		raw, err := m.Load(ctx, id)
		return err == nil && raw == nil
	}, time.Second, 10*time.Millisecond)
}

func TestMemory_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)
	id := testIdentity("Copy")
	require.NoError(t, m.Save(ctx, id, []byte(windowXML)))

	raw, err := m.Load(ctx, id)
	require.NoError(t, err)
	raw[0] = 'X'

	again, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, windowXML, string(again))
}

func TestMemory_Closed(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.Load(context.Background(), testIdentity("X"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Save(context.Background(), testIdentity("X"), []byte(windowXML)), ErrClosed)
	m.Delete(testIdentity("X"))
}
