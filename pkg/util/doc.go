// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件路径工具，安全拼接、路径段净化、父目录创建
package util
