package xaccess

import (
	"maps"
	"strings"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Rule 一个方法所需的 key 类型与掩码位。Mask 为 0 时只检查 key 类型。
type Rule struct {
	KeyType xapi.KeyType
	Mask    int64
}

// Table scope → 方法 → 规则，键均为小写。
type Table map[string]map[string]Rule

// Lookup 查找规则，scope 与方法大小写不敏感。
func (t Table) Lookup(scope, method string) (Rule, bool) {
	methods, ok := t[strings.ToLower(scope)]
	if !ok {
		return Rule{}, false
	}
	r, ok := methods[strings.ToLower(method)]
	return r, ok
}

// Set 添加或覆盖一条规则。
func (t Table) Set(scope, method string, r Rule) {
	scope = strings.ToLower(scope)
	if t[scope] == nil {
		t[scope] = make(map[string]Rule)
	}
	t[scope][strings.ToLower(method)] = r
}

// Clone 深拷贝。
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for scope, methods := range t {
		out[scope] = maps.Clone(methods)
	}
	return out
}

// Merge 返回 t 与 other 合并后的新表，other 中的规则优先。
func (t Table) Merge(other Table) Table {
	out := t.Clone()
	for scope, methods := range other {
		for method, r := range methods {
			out.Set(scope, method, r)
		}
	}
	return out
}

func character(mask int64) Rule   { return Rule{KeyType: xapi.KeyTypeCharacter, Mask: mask} }
func corporation(mask int64) Rule { return Rule{KeyType: xapi.KeyTypeCorporation, Mask: mask} }

// DefaultTable 返回远端 API 公布的访问掩码表。
func DefaultTable() Table {
	return Table{
		"account": {
			"accountstatus": character(33554432),
		},
		"char": {
			"accountbalance":         character(1),
			"assetlist":              character(2),
			"calendareventattendees": character(4),
			"charactersheet":         character(8),
			"contactlist":            character(16),
			"contactnotifications":   character(32),
			"facwarstats":            character(64),
			"industryjobs":           character(128),
			"killlog":                character(256),
			"mailbodies":             character(512),
			"mailinglists":           character(1024),
			"mailmessages":           character(2048),
			"marketorders":           character(4096),
			"medals":                 character(8192),
			"notifications":          character(16384),
			"notificationtexts":      character(32768),
			"research":               character(65536),
			"skillintraining":        character(131072),
			"skillqueue":             character(262144),
			"standings":              character(524288),
			"upcomingcalendarevents": character(1048576),
			"walletjournal":          character(2097152),
			"wallettransactions":     character(4194304),
			"contracts":              character(67108864),
			"locations":              character(134217728),
		},
		"corp": {
			"accountbalance":       corporation(1),
			"assetlist":            corporation(2),
			"membermedals":         corporation(4),
			"corporationsheet":     corporation(8),
			"contactlist":          corporation(16),
			"containerlog":         corporation(32),
			"facwarstats":          corporation(64),
			"industryjobs":         corporation(128),
			"killlog":              corporation(256),
			"membersecurity":       corporation(512),
			"membersecuritylog":    corporation(1024),
			"membertracking":       corporation(2048),
			"marketorders":         corporation(4096),
			"medals":               corporation(8192),
			"outpostlist":          corporation(16384),
			"outpostservicedetail": corporation(32768),
			"shareholders":         corporation(65536),
			"starbasedetail":       corporation(131072),
			"standings":            corporation(262144),
			"starbaselist":         corporation(524288),
			"walletjournal":        corporation(1048576),
			"wallettransactions":   corporation(2097152),
			"titles":               corporation(4194304),
			"contracts":            corporation(8388608),
			"locations":            corporation(16777216),
		},
	}
}
