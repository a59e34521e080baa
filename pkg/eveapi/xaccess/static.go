package xaccess

import (
	"fmt"
	"sync"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// StaticCheck 按访问掩码表检查调用，可并发使用，规则可在运行时整体替换。
type StaticCheck struct {
	mu    sync.RWMutex
	table Table
}

// NewStaticCheck 使用 table 创建检查器，table 为 nil 时使用 DefaultTable。
func NewStaticCheck(table Table) *StaticCheck {
	if table == nil {
		table = DefaultTable()
	}
	return &StaticCheck{table: table.Clone()}
}

// Check 实现 xapi.AccessPolicy。
//
// 未知 key 类型、表中没有的方法直接放行；
// key 类型不符或掩码缺少所需位时返回 KindAccessDenied 错误。
func (s *StaticCheck) Check(scope, method string, keyType xapi.KeyType, accessMask int64) error {
	effective := keyType
	if effective == xapi.KeyTypeAccount {
		effective = xapi.KeyTypeCharacter
	}
	if effective != xapi.KeyTypeCharacter && effective != xapi.KeyTypeCorporation {
		return nil
	}

	s.mu.RLock()
	rule, ok := s.table.Lookup(scope, method)
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if rule.KeyType != "" && rule.KeyType != effective {
		return xapi.NewAccessDeniedError(scope, method, fmt.Sprintf("not accessible with keytype %s", keyType))
	}
	if rule.Mask != 0 && rule.Mask&accessMask == 0 {
		return xapi.NewAccessDeniedError(scope, method, fmt.Sprintf("not accessible with accessMask %d", accessMask))
	}
	return nil
}

// Replace 整体替换规则表。
func (s *StaticCheck) Replace(table Table) {
	table = table.Clone()
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
}

// Table 返回当前规则表的副本。
func (s *StaticCheck) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

var _ xapi.AccessPolicy = (*StaticCheck)(nil)
