// Package xfile 提供归档落盘所需的路径工具。
//
// 主要函数：
//   - SafeJoin: 将相对路径拼接到基准目录，拒绝绝对路径、".." 段与空字节
//   - CleanSegment: 把任意字符串（方法名、key ID）净化为单个安全路径段
//   - EnsureDir: 创建文件的父目录
//
// SafeJoin 不解析符号链接，只做路径字符串层面的校验。
package xfile
