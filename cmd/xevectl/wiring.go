package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xeveapi/pkg/eveapi/xaccess"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/eveapi/xarchive"
	"github.com/omeyang/xeveapi/pkg/eveapi/xcache"
	"github.com/omeyang/xeveapi/pkg/eveapi/xcalllog"
	"github.com/omeyang/xeveapi/pkg/eveapi/xratelimit"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
	"github.com/omeyang/xeveapi/pkg/observability/xmetrics"
)

// 缓存后端名称。
const (
	cacheNone   = "none"
	cacheMemory = "memory"
	cacheLRU    = "lru"
	cacheRedis  = "redis"
	cacheTiered = "tiered"
)

// runtime 一次命令执行所需的客户端与资源。
type runtime struct {
	client  *xapi.Client
	logger  *slog.Logger
	printer *printer
	redis   redis.UniversalClient
	closers []func() error
}

// Close 按创建的逆序释放资源。
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *runtime) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// newRuntime 根据全局选项组装客户端；失败时已创建的资源会被释放。
func newRuntime(ctx context.Context, cmd *cli.Command) (rt *runtime, err error) {
	root := cmd.Root()
	p, err := newPrinter(cmd.String(flagOutput), root.Writer, root.ErrWriter)
	if err != nil {
		return nil, err
	}
	built := &runtime{printer: p}
	rt = built
	defer func() {
		if err != nil {
			_ = built.Close()
		}
	}()

	if err = rt.setupLogger(cmd); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := []xapi.Option{
		xapi.WithLogger(rt.logger),
		xapi.WithCallLog(xcalllog.NewSlog(rt.logger)),
	}

	fetcher, err := rt.buildFetcher(cmd, cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, xapi.WithFetcher(fetcher))

	observer, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName("xevectl"))
	if err != nil {
		return nil, err
	}
	opts = append(opts, xapi.WithObserver(observer))

	if err = rt.connectRedis(ctx, cmd); err != nil {
		return nil, err
	}

	cache, err := rt.buildCache(cmd)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, xapi.WithCache(cache))
	}

	archive, err := rt.buildArchive(cmd)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts = append(opts, xapi.WithArchive(archive))
	}

	if !cmd.Bool(flagNoAccessCheck) {
		policy, perr := buildAccessPolicy(cmd)
		if perr != nil {
			return nil, perr
		}
		opts = append(opts, xapi.WithAccessPolicy(policy))
	}

	limiter, err := rt.buildRateLimiter(cmd)
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		opts = append(opts, xapi.WithRateLimiter(limiter))
	}

	rt.client, err = xapi.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// =============================================================================
// 各组件
// =============================================================================

// setupLogger 构建日志并设为 xlog 全局 Logger，Close 时恢复原全局 Logger。
func (r *runtime) setupLogger(cmd *cli.Command) error {
	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String(flagLogLevel)).
		SetFormat(cmd.String(flagLogFormat)).
		SetReplaceAttr(xlog.RedactCredentials)
	if file := cmd.String(flagLogFile); file != "" {
		b = b.SetRotation(file)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return newUsageError("日志配置: %v", err)
	}
	r.onClose(cleanup)
	prev := xlog.Default()
	xlog.SetDefault(logger)
	r.onClose(func() error {
		xlog.SetDefault(prev)
		return nil
	})
	r.logger = xlog.Slog(logger)
	return nil
}

// loadConfig 读取配置文件并以显式设置的选项覆盖。
func loadConfig(cmd *cli.Command) (*xapi.Config, error) {
	cfg := xapi.DefaultConfig()
	if path := cmd.String(flagConfig); path != "" {
		loaded, err := xapi.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("xevectl: load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.IsSet(flagBaseURL) {
		cfg.BaseURL = cmd.String(flagBaseURL)
	}
	if cmd.IsSet(flagKeyID) {
		cfg.KeyID = cmd.String(flagKeyID)
	}
	if cmd.IsSet(flagVCode) {
		cfg.VCode = cmd.String(flagVCode)
	}
	if cmd.IsSet(flagScope) {
		cfg.Scope = cmd.String(flagScope)
	}
	if cmd.IsSet(flagTimeout) {
		cfg.Timeout = cmd.Duration(flagTimeout)
	}
	if cmd.Bool(flagHTTPPost) {
		cfg.HTTPPost = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, newUsageError("%v", err)
	}
	return cfg, nil
}

func (r *runtime) buildFetcher(cmd *cli.Command, cfg *xapi.Config) (xapi.Fetcher, error) {
	httpFetcher, err := xapi.NewHTTPFetcher(cfg)
	if err != nil {
		return nil, err
	}
	var f xapi.Fetcher = httpFetcher
	if attempts := cmd.Uint(flagRetries); attempts > 1 {
		f = xapi.NewRetryFetcher(f,
			xapi.WithRetryAttempts(attempts),
			xapi.WithRetryLogger(r.logger),
		)
	}
	return xapi.NewBreakerFetcher(f,
		xapi.WithBreakerName("xevectl"),
		xapi.WithBreakerLogger(r.logger),
	), nil
}

// connectRedis 在指定 --redis 时建立连接并 PING 校验。
func (r *runtime) connectRedis(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String(flagRedis)
	if addr == "" {
		return nil
	}
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return newUsageError("redis 地址: %v", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	r.onClose(client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("xevectl: redis ping: %w", err)
	}
	r.redis = client
	return nil
}

func (r *runtime) requireRedis(feature string) error {
	if r.redis == nil {
		return newUsageError("%s 需要 --redis", feature)
	}
	return nil
}

func (r *runtime) buildCache(cmd *cli.Command) (xapi.CacheStore, error) {
	var opts []xcache.Option
	if cmd.IsSet(flagCacheTTL) {
		opts = append(opts, xcache.WithTTL(cmd.Duration(flagCacheTTL)))
	}
	if cmd.IsSet(flagErrorTTL) {
		opts = append(opts, xcache.WithErrorTTL(cmd.Duration(flagErrorTTL)))
	}

	switch kind := strings.ToLower(cmd.String(flagCache)); kind {
	case "", cacheNone:
		return nil, nil
	case cacheMemory:
		return r.memoryCache(opts)
	case cacheLRU:
		lru, err := xcache.NewLRU(cmd.Int(flagCacheSize), opts...)
		if err != nil {
			return nil, newUsageError("lru 缓存: %v", err)
		}
		r.onClose(lru.Close)
		return lru, nil
	case cacheRedis:
		if err := r.requireRedis("redis 缓存"); err != nil {
			return nil, err
		}
		return xcache.NewRedis(r.redis, opts...)
	case cacheTiered:
		if err := r.requireRedis("tiered 缓存"); err != nil {
			return nil, err
		}
		l1, err := r.memoryCache(opts)
		if err != nil {
			return nil, err
		}
		l2, err := xcache.NewRedis(r.redis, opts...)
		if err != nil {
			return nil, err
		}
		return xcache.NewTiered(l1, l2, r.logger)
	default:
		return nil, newUsageError("未知缓存后端 %q", kind)
	}
}

func (r *runtime) memoryCache(opts []xcache.Option) (*xcache.Memory, error) {
	m, err := xcache.NewMemory(opts...)
	if err != nil {
		return nil, err
	}
	r.onClose(m.Close)
	return m, nil
}

func (r *runtime) buildArchive(cmd *cli.Command) (xapi.ArchiveStore, error) {
	var stores xarchive.Multi
	if dir := cmd.String(flagArchiveDir); dir != "" {
		f, err := xarchive.NewFile(dir)
		if err != nil {
			return nil, newUsageError("归档目录: %v", err)
		}
		stores = append(stores, f)
	}
	if path := cmd.String(flagArchiveDB); path != "" {
		db, err := xarchive.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("xevectl: open archive db: %w", err)
		}
		r.onClose(db.Close)
		stores = append(stores, db)
	}
	switch len(stores) {
	case 0:
		return nil, nil
	case 1:
		return stores[0], nil
	default:
		return stores, nil
	}
}

func buildAccessPolicy(cmd *cli.Command) (xapi.AccessPolicy, error) {
	path := cmd.String(flagAccessPolicy)
	if path == "" {
		return xaccess.NewStaticCheck(nil), nil
	}
	policy, err := xaccess.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("xevectl: load access policy: %w", err)
	}
	return policy, nil
}

func (r *runtime) buildRateLimiter(cmd *cli.Command) (xapi.RateLimiter, error) {
	perSecond := cmd.Float(flagRate)
	if perSecond <= 0 {
		return nil, nil
	}
	opts := []xratelimit.Option{
		xratelimit.WithRate(perSecond, max(int(perSecond), 1)),
	}
	if cmd.Bool(flagRateShared) {
		if err := r.requireRedis("共享限流"); err != nil {
			return nil, err
		}
		return xratelimit.NewRedis(r.redis, opts...)
	}
	return xratelimit.NewLocal(opts...)
}
