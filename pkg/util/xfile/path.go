package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 默认目录权限。
const DefaultDirPerm = 0750

// SafeJoin 将相对路径 path 拼接到绝对目录 base，结果保证位于 base 之内。
//
//	SafeJoin("/var/archive", "2024-01-02/char.xml") // -> "/var/archive/2024-01-02/char.xml"
//	SafeJoin("/var/archive", "../etc/passwd")        // -> ErrPathTraversal
//	SafeJoin("/var/archive", "/etc/passwd")          // -> ErrInvalidPath
func SafeJoin(base, path string) (string, error) {
	if base == "" || path == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsRune(base, 0) || strings.ContainsRune(path, 0) {
		return "", ErrNullByte
	}
	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be absolute: %w", ErrInvalidPath)
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, `\`) {
		return "", fmt.Errorf("path must be relative: %w", ErrInvalidPath)
	}
	cleanPath := filepath.Clean(path)
	if hasDotDotSegment(cleanPath) {
		return "", ErrPathTraversal
	}

	joined := filepath.Join(cleanBase, cleanPath)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || hasDotDotSegment(rel) {
		return "", ErrPathEscaped
	}
	return joined, nil
}

// CleanSegment 将 s 净化为单个路径段：分隔符、空字节和控制字符替换为 '_'，
// "." 与 ".." 替换为 "_"，空串返回 "_"。
func CleanSegment(s string) string {
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		default:
			return r
		}
	}, s)
}

// EnsureDir 以 DefaultDirPerm 创建 filename 的父目录，已存在时不报错。
func EnsureDir(filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(filename, 0) {
		return ErrNullByte
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, DefaultDirPerm)
}

// hasDotDotSegment 检测 ".." 是否作为独立路径段出现，'/' 与 '\' 均视为分隔符。
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
