// xevectl 是 EVE Online XML API 的命令行客户端。
//
// 用法:
//
//	xevectl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config       YAML/JSON 配置文件，读取 eveapi 段
//	    --base-url     API 根地址 (默认: https://api.eveonline.com/)
//	    --key-id       API key ID (环境变量 XEVEAPI_KEY_ID)
//	    --vcode        API 验证码 (环境变量 XEVEAPI_VCODE)
//	    --cache        缓存后端: none、memory、lru、redis、tiered
//	    --redis        Redis 地址，redis 缓存与共享限流使用
//	    --archive-dir  原始响应归档目录
//	    --archive-db   原始响应归档 SQLite 文件
//	    --rate         每秒请求数上限，0 表示不限流
//	-o, --output       输出格式: xml、json、text
//
// 命令:
//
//	call <scope> <method> [name=value ...]  调用任意 API 方法
//	keyinfo                                 探测 key 类型与访问掩码
//	status                                  查询服务器状态
//
// 退出码:
//
//	0: 调用成功
//	1: 调用失败或 API 返回错误结果
//	2: 参数错误（缺少参数、未知命令、无效选项等）
//
// 示例:
//
//	xevectl status
//	xevectl --key-id 123 --vcode abc keyinfo
//	xevectl --key-id 123 --vcode abc call char CharacterSheet characterID=9001
//	xevectl --cache redis --redis localhost:6379 -o json call eve RefTypes
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用，stdout 与 stderr 分别挂在 Writer 与 ErrWriter 上。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xevectl",
		Usage:     "EVE Online XML API 命令行客户端",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Commands:  createCommands(),
		// 由 run() 统一映射退出码，禁止 urfave/cli 直接 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
		Description: `xevectl 通过 xeveapi 客户端调用 EVE Online XML API，
调用经过参数清洗、访问检查、缓存、限流、抓取、解析与归档完整流程。

凭证优先级：命令行选项 > 环境变量 > 配置文件。`,
	}
}

// run 执行应用并返回退出码。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// setupSignalHandler 第一次信号取消上下文，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
