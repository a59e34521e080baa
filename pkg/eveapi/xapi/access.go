package xapi

import (
	"strconv"
	"strings"
)

// KeyType API key 类型。空值表示未知（未设置或未探测）。
type KeyType string

// 已知的 key 类型。
const (
	KeyTypeNone        KeyType = ""
	KeyTypeAccount     KeyType = "Account"
	KeyTypeCharacter   KeyType = "Character"
	KeyTypeCorporation KeyType = "Corporation"
)

// ParseKeyType 规范化 key 类型：首字母大写、其余小写后必须是三种已知类型之一，
// 否则返回 KeyTypeNone。
func ParseKeyType(s string) KeyType {
	s = strings.TrimSpace(s)
	if s == "" {
		return KeyTypeNone
	}
	lower := strings.ToLower(s)
	switch kt := KeyType(strings.ToUpper(lower[:1]) + lower[1:]); kt {
	case KeyTypeAccount, KeyTypeCharacter, KeyTypeCorporation:
		return kt
	default:
		return KeyTypeNone
	}
}

// Valid 报告 k 是否为已知类型。
func (k KeyType) Valid() bool {
	return k == KeyTypeAccount || k == KeyTypeCharacter || k == KeyTypeCorporation
}

// ParseAccessMask 把字符串转换为访问掩码；非数字得 0，负数截断为 0。
func ParseAccessMask(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// AccessState 会话的访问状态。零值即 (none, 0)。
type AccessState struct {
	KeyType    KeyType
	AccessMask int64
}

// Known 报告 key 类型是否已知；只有已知时才会进行访问检查。
func (s AccessState) Known() bool {
	return s.KeyType.Valid()
}

func newAccessState(keyType string, accessMask int64) AccessState {
	if accessMask < 0 {
		accessMask = 0
	}
	return AccessState{KeyType: ParseKeyType(keyType), AccessMask: accessMask}
}
