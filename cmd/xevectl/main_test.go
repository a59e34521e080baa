package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

const serverStatusXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2011-10-20 10:00:00</currentTime>
  <result>
    <serverOpen>True</serverOpen>
    <onlinePlayers>31337</onlinePlayers>
  </result>
  <cachedUntil>2011-10-20 11:00:00</cachedUntil>
</eveapi>`

const sheetXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2011-10-20 10:00:00</currentTime>
  <result>
    <name>Alpha</name>
    <rowset name="skills" key="typeID" columns="typeID,level">
      <row typeID="3300" level="5"/>
    </rowset>
  </result>
  <cachedUntil>2011-10-20 11:00:00</cachedUntil>
</eveapi>`

const corpKeyInfoXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2011-10-20 10:00:00</currentTime>
  <result>
    <key accessMask="8" type="Corporation" expires=""/>
  </result>
  <cachedUntil>2011-10-20 10:05:00</cachedUntil>
</eveapi>`

const charKeyInfoXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2011-10-20 10:00:00</currentTime>
  <result>
    <key accessMask="268435455" type="Character" expires=""/>
  </result>
  <cachedUntil>2011-10-20 10:05:00</cachedUntil>
</eveapi>`

const authErrorXML = `<?xml version='1.0' encoding='UTF-8'?>
<eveapi version="2">
  <currentTime>2011-10-20 10:00:00</currentTime>
  <error code="203">Authentication failure.</error>
  <cachedUntil>2011-10-21 10:00:00</cachedUntil>
</eveapi>`

// fakeAPI 按路径返回固定响应并记录请求。
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []*http.Request
}

func newFakeAPI(t *testing.T, responses map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	body, ok := f.responses[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.URL.Path)
	}
	return out
}

func (f *fakeAPI) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	return f.requests[len(f.requests)-1].URL.RawQuery
}

// runCLI 以给定参数执行 xevectl，返回退出码与输出。
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), append([]string{"xevectl"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Status(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{"/server/ServerStatus.xml.aspx": serverStatusXML})

	code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "status")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "onlinePlayers = 31337\nserverOpen = True\n", stdout)
	assert.Equal(t, []string{"/server/ServerStatus.xml.aspx"}, api.paths())
}

func TestRun_CallOutputs(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{"/char/CharacterSheet.xml.aspx": sheetXML})

	t.Run("text", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "--key-id", "42", "--vcode", "secret",
			"call", "char", "CharacterSheet", "characterID=9001")
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "name = Alpha\n")
		assert.Contains(t, stdout, "skills[0].level = 5\n")
		assert.Equal(t, "characterID=9001&keyID=42&vCode=secret", api.lastQuery())
	})

	t.Run("json", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "-o", "json", "call", "char", "CharacterSheet")
		require.Equal(t, 0, code, stderr)
		var doc document
		require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
		assert.Equal(t, "2", doc.Version)
		assert.Equal(t, "2011-10-20 10:00:00", doc.CurrentTime)
		assert.Equal(t, "2011-10-20 11:00:00", doc.CachedUntil)
		assert.Equal(t, "3300", doc.Result["skills[0].typeID"])
	})

	t.Run("xml", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "-o", "xml", "call", "char", "CharacterSheet")
		require.Equal(t, 0, code, stderr)
		assert.Equal(t, sheetXML, stdout)
	})
}

func TestRun_ReservedParamsAreDropped(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{"/eve/CharacterName.xml.aspx": sheetXML})

	code, _, stderr := runCLI(t, "--base-url", srv.URL, "call", "eve", "CharacterName", "ids=1", "vCode=leak", "apikey=x")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "ids=1", api.lastQuery())
}

func TestRun_ApplicationError(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{"/account/Characters.xml.aspx": authErrorXML})

	code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "call", "account", "Characters")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "API 错误 203: Authentication failure.")
}

func TestRun_TransportError(t *testing.T) {
	_, srv := newFakeAPI(t, nil)

	code, _, stderr := runCLI(t, "--base-url", srv.URL, "--retries", "1", "call", "eve", "Missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "错误: xapi: http status 404")
}

func TestRun_KeyInfo(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{"/account/APIKeyInfo.xml.aspx": charKeyInfoXML})

	code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "--key-id", "42", "--vcode", "secret", "keyinfo")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "accessMask = 268435455\nkeyType = Character\n", stdout)

	code, _, stderr = runCLI(t, "--base-url", srv.URL, "keyinfo")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "keyinfo 需要 --key-id 与 --vcode")
}

func TestRun_KeyInfoFromEnvironment(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{"/account/APIKeyInfo.xml.aspx": corpKeyInfoXML})
	t.Setenv("XEVEAPI_KEY_ID", "42")
	t.Setenv("XEVEAPI_VCODE", "secret")

	code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "-o", "json", "keyinfo")
	require.Equal(t, 0, code, stderr)
	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &fields))
	assert.Equal(t, map[string]string{"keyType": "Corporation", "accessMask": "8"}, fields)
}

func TestRun_DetectThenDenied(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{
		"/account/APIKeyInfo.xml.aspx":  corpKeyInfoXML,
		"/char/CharacterSheet.xml.aspx": sheetXML,
	})

	code, _, stderr := runCLI(t, "--base-url", srv.URL, "--key-id", "42", "--vcode", "secret",
		"call", "--detect", "char", "CharacterSheet")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not accessible with keytype Corporation")
	assert.Equal(t, []string{"/account/APIKeyInfo.xml.aspx"}, api.paths())

	code, _, stderr = runCLI(t, "--base-url", srv.URL, "--key-id", "42", "--vcode", "secret", "--no-access-check",
		"call", "--detect", "char", "CharacterSheet")
	assert.Equal(t, 0, code, stderr)
}

func TestRun_AccessPolicyFile(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{
		"/account/APIKeyInfo.xml.aspx":  charKeyInfoXML,
		"/char/CharacterSheet.xml.aspx": sheetXML,
	})
	policy := filepath.Join(t.TempDir(), "access.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(`access:
  rules:
    char:
      charactersheet:
        key_type: Corporation
        mask: 8
`), 0o600))

	code, _, stderr := runCLI(t, "--base-url", srv.URL, "--key-id", "42", "--vcode", "secret",
		"--access-policy", policy, "call", "--detect", "char", "CharacterSheet")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not accessible with keytype Character")
}

func TestRun_ArchiveAndLog(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{"/server/ServerStatus.xml.aspx": serverStatusXML})
	dir := t.TempDir()
	logFile := filepath.Join(dir, "xevectl.log")

	code, _, stderr := runCLI(t, "--base-url", srv.URL,
		"--archive-dir", filepath.Join(dir, "files"),
		"--archive-db", filepath.Join(dir, "archive.db"),
		"--log-level", "info", "--log-format", "json", "--log-file", logFile,
		"--rate", "50",
		"status")
	require.Equal(t, 0, code, stderr)

	var archived []string
	require.NoError(t, filepath.WalkDir(filepath.Join(dir, "files"), func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			archived = append(archived, path)
		}
		return err
	}))
	require.Len(t, archived, 1)
	body, err := os.ReadFile(archived[0])
	require.NoError(t, err)
	assert.Equal(t, serverStatusXML, string(body))

	_, err = os.Stat(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)

	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"msg":"eveapi call"`)
	assert.Contains(t, string(logged), `"method":"ServerStatus"`)
}

func TestRun_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	api, srv := newFakeAPI(t, map[string]string{"/server/ServerStatus.xml.aspx": serverStatusXML})

	for range 2 {
		code, stdout, stderr := runCLI(t, "--base-url", srv.URL, "--redis", mr.Addr(), "--cache", "tiered", "status")
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "serverOpen = True")
	}
	assert.Len(t, api.paths(), 1)
	assert.Len(t, mr.Keys(), 1)

	code, _, stderr := runCLI(t, "--base-url", srv.URL, "--redis", mr.Addr(), "--rate", "10", "--rate-shared", "status")
	assert.Equal(t, 0, code, stderr)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"call without method", []string{"call", "eve"}, "call 需要 <scope> <method>"},
		{"bad param", []string{"call", "eve", "X", "novalue"}, `参数 "novalue" 需要 name=value 形式`},
		{"unknown output", []string{"-o", "yaml", "status"}, `未知输出格式 "yaml"`},
		{"unknown cache", []string{"--cache", "disk", "status"}, `未知缓存后端 "disk"`},
		{"redis cache without redis", []string{"--cache", "redis", "status"}, "redis 缓存 需要 --redis"},
		{"shared rate without redis", []string{"--rate", "1", "--rate-shared", "status"}, "共享限流 需要 --redis"},
		{"bad log level", []string{"--log-level", "loud", "status"}, "日志配置"},
		{"bad base url", []string{"--base-url", "ftp://x/", "status"}, "参数错误"},
		{"unknown flag", []string{"--nope", "status"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 2, code, stderr)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=", "c=x=y", "a=2"})
	require.NoError(t, err)
	assert.Equal(t, xapi.Params{"a": "2", "b": "", "c": "x=y"}, params)

	_, err = parseParams([]string{"=1"})
	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestIsCLIUsageError(t *testing.T) {
	assert.True(t, isCLIUsageError(errors.New("flag provided but not defined: -nope")))
	assert.True(t, isCLIUsageError(errors.New(`invalid value "x" for flag -rate`)))
	assert.False(t, isCLIUsageError(io.EOF))
}
