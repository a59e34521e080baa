package xarchive

import "errors"

var (
	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xarchive: nil client")

	// ErrEmptyDir 表示未指定归档目录。
	ErrEmptyDir = errors.New("xarchive: archive directory is required")

	// ErrEmptyBucket 表示未指定 S3 bucket。
	ErrEmptyBucket = errors.New("xarchive: bucket is required")

	// ErrNameExhausted 表示同名归档过多，找不到可用的文件名。
	ErrNameExhausted = errors.New("xarchive: no free archive file name")

	// ErrNotFound 表示没有匹配的归档记录。
	ErrNotFound = errors.New("xarchive: record not found")
)
