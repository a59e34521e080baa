// Package xaccess 提供基于访问掩码表的 xapi.AccessPolicy 实现。
//
// 表按 scope、方法（均大小写不敏感）给出所需的 key 类型和掩码位。
// Account 类型的 key 在掩码层面等同于 Character。
// 不在表中的方法以及未知 key 类型一律放行，由服务端做最终判定。
//
// 规则可从 YAML/JSON 文件加载（LoadPolicy），并可随文件变化热更新（Watch）：
//
//	access:
//	  replace: false        # true 时丢弃内置表，只使用文件中的规则
//	  rules:
//	    char:
//	      charactersheet: {key_type: Character, mask: 8}
package xaccess
