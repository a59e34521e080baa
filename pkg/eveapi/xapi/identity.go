package xapi

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// =============================================================================
// Params
// =============================================================================

// Params 调用参数。名称区分大小写，编码时按键排序。
type Params map[string]string

// Clone 返回浅拷贝，nil 返回空 map。
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Keys 返回排序后的参数名。
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Values 转换为 url.Values。
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// Encode 按键排序编码为 query string。
func (p Params) Encode() string {
	return p.Values().Encode()
}

// ParamsFromValues 从 url.Values 构造 Params，每个键取第一个值。
func ParamsFromValues(v url.Values) Params {
	out := make(Params, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

// reservedKeys 由凭证注入器独占的参数名（小写）。
var reservedKeys = map[string]struct{}{
	"userid": {},
	"apikey": {},
	"keyid":  {},
	"vcode":  {},
}

// IsReservedKey 报告 name 是否为凭证参数名（大小写不敏感）。
func IsReservedKey(name string) bool {
	_, ok := reservedKeys[strings.ToLower(name)]
	return ok
}

// SanitizeParams 返回去除凭证参数（userid/apikey/keyid/vcode，大小写不敏感）后的副本。
// 调用方无法借此覆盖会话凭证；缓存身份也因此与凭证写法无关。
func SanitizeParams(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if IsReservedKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// InjectCredentials 返回追加了会话凭证的新参数表，不修改 p。
// customKeys 为 true 时使用 keyID/vCode，否则使用 userid/apikey；空值不注入。
func InjectCredentials(p Params, keyID, vCode string, customKeys bool) Params {
	out := p.Clone()
	idName, codeName := "userid", "apikey"
	if customKeys {
		idName, codeName = "keyID", "vCode"
	}
	if keyID != "" {
		out[idName] = keyID
	}
	if vCode != "" {
		out[codeName] = vCode
	}
	return out
}

// =============================================================================
// Identity
// =============================================================================

// Identity 唯一标识一次逻辑调用，缓存与归档都以它寻址。
// Params 必须是 SanitizeParams 的结果。
type Identity struct {
	KeyID  string
	VCode  string
	Scope  string
	Method string
	Params Params
}

// Key 返回确定性的存储键 "scope/method/<hash>"。哈希覆盖 key ID、vCode 和排序后的参数，
// 键中不出现凭证明文。
func (id Identity) Key() string {
	return id.Scope + "/" + id.Method + "/" + id.Hash()
}

// Hash 返回 Identity 的 16 位十六进制 xxhash64。
func (id Identity) Hash() string {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	write(id.KeyID)
	write(id.VCode)
	write(id.Scope)
	write(id.Method)
	for _, k := range id.Params.Keys() {
		write(k)
		write(id.Params[k])
	}
	h := strconv.FormatUint(d.Sum64(), 16)
	return strings.Repeat("0", 16-len(h)) + h
}

// String 返回脱敏后的描述，用于日志。
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString(id.Scope)
	b.WriteByte('/')
	b.WriteString(id.Method)
	if id.KeyID != "" {
		b.WriteString(" key=")
		b.WriteString(id.KeyID)
	}
	if len(id.Params) > 0 {
		b.WriteString(" params=")
		b.WriteString(id.Params.Encode())
	}
	return b.String()
}
