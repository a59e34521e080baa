package xapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/config/xconf"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultScope, c.Scope)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultUserAgent, c.UserAgent)
	assert.True(t, c.UseCustomKeys())
	assert.True(t, c.VerifiesPeer())
	assert.False(t, c.HTTPPost)
	assert.Zero(t, c.KeepAlive)
	assert.Equal(t, "xeveapi/"+Version+" "+DefaultUserAgent, c.userAgent())

	c = &Config{BaseURL: "http://localhost:8080/api", CustomKeys: Bool(false), VerifyPeer: Bool(false)}
	c.ApplyDefaults()
	assert.Equal(t, "http://localhost:8080/api/", c.BaseURL)
	assert.False(t, c.UseCustomKeys())
	assert.False(t, c.VerifiesPeer())
}

func TestConfig_BaseURLTrailingSlash(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", DefaultBaseURL},
		{"http://localhost:8080/api", "http://localhost:8080/api/"},
		{"http://localhost:8080/api/", "http://localhost:8080/api/"},
		{"https://api.test", "https://api.test/"},
	}
	for _, tt := range tests {
		c := &Config{BaseURL: tt.in}
		c.ApplyDefaults()
		assert.Equal(t, tt.want, c.BaseURL, tt.in)
	}
}

func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)
	assert.ErrorIs(t, (&Config{}).Validate(), ErrMissingBaseURL)
	assert.ErrorIs(t, (&Config{BaseURL: "ftp://x/"}).Validate(), ErrInvalidBaseURL)
	assert.ErrorIs(t, (&Config{BaseURL: DefaultBaseURL, Timeout: -1}).Validate(), ErrInvalidTimeout)
	assert.ErrorIs(t, (&Config{BaseURL: DefaultBaseURL, InterfaceIP: "nope"}).Validate(), ErrInvalidInterfaceIP)
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Clone(t *testing.T) {
	c := DefaultConfig()
	c.ExtraParams = map[string]string{"a": "1"}
	clone := c.Clone()
	clone.ExtraParams["a"] = "2"
	*clone.CustomKeys = false
	assert.Equal(t, "1", c.ExtraParams["a"])
	assert.True(t, c.UseCustomKeys())

	var nilCfg *Config
	assert.Nil(t, nilCfg.Clone())
}

func TestLoadConfig(t *testing.T) {
	yaml := `eveapi:
  base_url: https://api.test/
  key_id: "42"
  vcode: secret
  custom_keys: false
  scope: char
  timeout: 5s
  keepalive: 30s
  extra_params:
    foo: bar
`
	path := filepath.Join(t.TempDir(), "eve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.test/", c.BaseURL)
	assert.Equal(t, "42", c.KeyID)
	assert.Equal(t, "secret", c.VCode)
	assert.False(t, c.UseCustomKeys())
	assert.True(t, c.VerifiesPeer())
	assert.Equal(t, "char", c.Scope)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 30*time.Second, c.KeepAlive)
	assert.Equal(t, map[string]string{"foo": "bar"}, c.ExtraParams)
}

func TestLoadConfigBytes(t *testing.T) {
	c, err := LoadConfigBytes([]byte(`{"eveapi":{"http_post":true}}`), xconf.FormatJSON)
	require.NoError(t, err)
	assert.True(t, c.HTTPPost)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)

	_, err = LoadConfigBytes([]byte(`{"eveapi":{"base_url":"::"}}`), xconf.FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestBuildTLSConfig(t *testing.T) {
	c := DefaultConfig()
	tc, err := c.BuildTLSConfig()
	require.NoError(t, err)
	assert.False(t, tc.InsecureSkipVerify)

	c.CAFile = filepath.Join(t.TempDir(), "missing.pem")
	_, err = c.BuildTLSConfig()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	c.CAFile = bad
	_, err = c.BuildTLSConfig()
	assert.Error(t, err)
}
