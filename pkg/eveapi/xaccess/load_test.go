package xaccess

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/config/xconf"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

const mergePolicy = `access:
  rules:
    char:
      CharacterSheet: {key_type: character, mask: 1}
    custom:
      thing: {mask: 4}
`

func TestLoadPolicy_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mergePolicy), 0o600))

	s, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.NoError(t, s.Check("char", "CharacterSheet", xapi.KeyTypeCharacter, 1))
	assert.Error(t, s.Check("char", "CharacterSheet", xapi.KeyTypeCharacter, 8))
	assert.Error(t, s.Check("char", "AssetList", xapi.KeyTypeCharacter, 1))
	assert.Error(t, s.Check("custom", "Thing", xapi.KeyTypeCorporation, 1))
	assert.NoError(t, s.Check("custom", "Thing", xapi.KeyTypeCorporation, 4))
}

func TestLoadPolicyBytes_Replace(t *testing.T) {
	s, err := LoadPolicyBytes([]byte(`{"access":{"replace":true,"rules":{"corp":{"titles":{"key_type":"Corporation","mask":2}}}}}`), xconf.FormatJSON)
	require.NoError(t, err)

	assert.NoError(t, s.Check("char", "AssetList", xapi.KeyTypeCharacter, 0))
	assert.Error(t, s.Check("corp", "Titles", xapi.KeyTypeCorporation, 1))
	assert.Len(t, s.Table(), 1)
}

func TestLoadPolicyBytes_Empty(t *testing.T) {
	s, err := LoadPolicyBytes([]byte(`{}`), xconf.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), s.Table())
}

func TestLoadPolicy_InvalidRules(t *testing.T) {
	_, err := LoadPolicyBytes([]byte(`{"access":{"rules":{"char":{"x":{"key_type":"Alliance"}}}}}`), xconf.FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = LoadPolicyBytes([]byte(`{"access":{"rules":{"char":{"x":{"key_type":"Account"}}}}}`), xconf.FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = LoadPolicyBytes([]byte(`{"access":{"rules":{"char":{"x":{"mask":-1}}}}}`), xconf.FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// syncBuffer 并发安全的日志缓冲。
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_ReloadsPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mergePolicy), 0o600))

	s, err := LoadPolicy(path)
	require.NoError(t, err)

	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	w, err := Watch(path, s, logger, xconf.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	w.Start()
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("access:\n  rules:\n    char:\n      charactersheet: {mask: 16}\n"), 0o600))
	assert.Eventually(t, func() bool {
		return s.Check("char", "CharacterSheet", xapi.KeyTypeCharacter, 16) == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("access:\n  rules:\n    char:\n      x: {mask: -5}\n"), 0o600))
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte("invalid policy ignored"))
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, s.Check("char", "CharacterSheet", xapi.KeyTypeCharacter, 16))
}

func TestWatch_Errors(t *testing.T) {
	_, err := Watch("x.yaml", nil, nil)
	assert.Error(t, err)
	_, err = Watch(filepath.Join(t.TempDir(), "missing.yaml"), NewStaticCheck(nil), nil)
	assert.Error(t, err)
}
