package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) *usageError {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitError 已向 stderr 输出详情的错误，只携带退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// cliUsageMarkers urfave/cli 与 flag 包产生的参数错误文本。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"Required flag",
	"No help topic for",
}

// isCLIUsageError 判断是否为 CLI 框架产生的参数错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, marker := range cliUsageMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// =============================================================================
// 全局选项
// =============================================================================

const (
	flagConfig        = "config"
	flagBaseURL       = "base-url"
	flagKeyID         = "key-id"
	flagVCode         = "vcode"
	flagScope         = "scope"
	flagTimeout       = "timeout"
	flagHTTPPost      = "post"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
	flagLogFile       = "log-file"
	flagCache         = "cache"
	flagCacheSize     = "cache-size"
	flagCacheTTL      = "cache-ttl"
	flagErrorTTL      = "error-ttl"
	flagRedis         = "redis"
	flagArchiveDir    = "archive-dir"
	flagArchiveDB     = "archive-db"
	flagAccessPolicy  = "access-policy"
	flagNoAccessCheck = "no-access-check"
	flagRate          = "rate"
	flagRateShared    = "rate-shared"
	flagRetries       = "retries"
	flagOutput        = "output"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "YAML/JSON 配置文件"},
		&cli.StringFlag{Name: flagBaseURL, Usage: "API 根地址"},
		&cli.StringFlag{Name: flagKeyID, Usage: "API key ID", Sources: cli.EnvVars("XEVEAPI_KEY_ID")},
		&cli.StringFlag{Name: flagVCode, Usage: "API 验证码", Sources: cli.EnvVars("XEVEAPI_VCODE")},
		&cli.StringFlag{Name: flagScope, Usage: "默认 scope"},
		&cli.DurationFlag{Name: flagTimeout, Aliases: []string{"t"}, Usage: "单次请求超时"},
		&cli.BoolFlag{Name: flagHTTPPost, Usage: "以表单 POST 发送请求"},
		&cli.StringFlag{Name: flagLogLevel, Usage: "日志级别", Value: "warn"},
		&cli.StringFlag{Name: flagLogFormat, Usage: "日志格式: text 或 json", Value: "text"},
		&cli.StringFlag{Name: flagLogFile, Usage: "日志文件，按大小轮转"},
		&cli.StringFlag{Name: flagCache, Usage: "缓存后端: none、memory、lru、redis、tiered", Value: cacheNone},
		&cli.IntFlag{Name: flagCacheSize, Usage: "lru 缓存条目上限", Value: 1024},
		&cli.DurationFlag{Name: flagCacheTTL, Usage: "固定缓存时长，覆盖响应中的缓存窗口"},
		&cli.DurationFlag{Name: flagErrorTTL, Usage: "错误结果缓存时长，负值表示不缓存"},
		&cli.StringFlag{Name: flagRedis, Usage: "Redis 地址或 redis:// URL", Sources: cli.EnvVars("XEVEAPI_REDIS")},
		&cli.StringFlag{Name: flagArchiveDir, Usage: "原始响应归档目录"},
		&cli.StringFlag{Name: flagArchiveDB, Usage: "原始响应归档 SQLite 文件"},
		&cli.StringFlag{Name: flagAccessPolicy, Usage: "访问策略文件，缺省使用内置表"},
		&cli.BoolFlag{Name: flagNoAccessCheck, Usage: "关闭调用前的访问检查"},
		&cli.FloatFlag{Name: flagRate, Usage: "每秒请求数上限，0 表示不限流"},
		&cli.BoolFlag{Name: flagRateShared, Usage: "通过 Redis 在多个进程间共享限流"},
		&cli.UintFlag{Name: flagRetries, Usage: "传输失败时的最大尝试次数", Value: 3},
		&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "输出格式: xml、json、text", Value: outputText},
	}
}

// =============================================================================
// 子命令
// =============================================================================

func createCommands() []*cli.Command {
	return []*cli.Command{
		createCallCommand(),
		createKeyInfoCommand(),
		createStatusCommand(),
	}
}

func createCallCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "调用任意 API 方法",
		ArgsUsage: "<scope> <method> [name=value ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "detect", Usage: "调用前先探测 key 的访问权限"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) < 2 {
				return newUsageError("call 需要 <scope> <method>")
			}
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			return withRuntime(ctx, cmd, func(ctx context.Context, rt *runtime) error {
				if cmd.Bool("detect") {
					if _, err := rt.client.DetectAccess(ctx); err != nil && !errors.Is(err, xapi.ErrDetectSkipped) {
						return err
					}
				}
				res, err := rt.client.Scope(args[0]).Invoke(ctx, args[1], params)
				if err != nil {
					return err
				}
				return rt.printer.Result(res)
			})
		},
	}
}

func createKeyInfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "keyinfo",
		Usage: "探测 key 类型与访问掩码",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRuntime(ctx, cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.client.DetectAccess(ctx)
				if errors.Is(err, xapi.ErrDetectSkipped) {
					return newUsageError("keyinfo 需要 --key-id 与 --vcode")
				}
				if err != nil {
					return err
				}
				if res.IsError() {
					return rt.printer.Result(res)
				}
				return rt.printer.Access(rt.client.Access())
			})
		},
	}
}

func createStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "查询服务器状态",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRuntime(ctx, cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.client.Scope("server").Invoke(ctx, "ServerStatus", nil)
				if err != nil {
					return err
				}
				return rt.printer.Result(res)
			})
		},
	}
}

// withRuntime 组装运行时、执行 fn 并释放资源。
func withRuntime(ctx context.Context, cmd *cli.Command, fn func(context.Context, *runtime) error) error {
	rt, err := newRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.logger.Warn("xevectl: release resources", xlog.Err(cerr))
		}
	}()
	return fn(ctx, rt)
}

// parseParams 解析 name=value 形式的调用参数，name 不可为空，后出现的同名参数覆盖前者。
func parseParams(args []string) (xapi.Params, error) {
	params := make(xapi.Params, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, newUsageError("参数 %q 需要 name=value 形式", arg)
		}
		params[name] = value
	}
	return params, nil
}
