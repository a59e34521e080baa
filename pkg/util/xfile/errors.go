package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（如基准目录不是绝对路径）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示路径包含 ".." 段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrPathEscaped 表示拼接结果超出了基准目录。
	ErrPathEscaped = errors.New("xfile: path escapes base directory")

	// ErrNullByte 表示路径中包含空字节。
	ErrNullByte = errors.New("xfile: path contains null byte")
)
