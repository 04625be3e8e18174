package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/junbin-yang/go-transition/internal/config"
	"github.com/junbin-yang/go-transition/internal/demo"
	"github.com/junbin-yang/go-transition/internal/runner"
	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timer"
	"github.com/junbin-yang/go-transition/pkg/transition"
)

var (
	configPath  = flag.StringP("config", "c", os.Getenv("CONFIG_PATH"), "Path to a YAML or JSON config file.")
	logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error). Overrides the config file.")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address. Overrides the config file.")
	interval    = flag.Duration("interval", 0, "Time between button clicks. Overrides the config file.")
	cycles      = flag.Int("cycles", -1, "Number of clicks before exiting, 0 for no limit. Overrides the config file.")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	timers := timer.NewManager()
	defer timers.StopAll()

	cfgMgr := config.NewManager(config.WithTimerManager(timers))
	if err := cfgMgr.Load(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := applyFlags(cfgMgr.Get())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	out, err := logger.NewRotateWriter(cfg.Logger.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建日志输出失败: %v\n", err)
		os.Exit(1)
	}
	level, _ := logger.ParseLevel(cfg.Logger.Level)
	log := logger.New(out, level, logger.AddCaller())
	logger.ReplaceDefault(log)

	log.Info("transition demo starting",
		logger.String("config", cfgMgr.Path()),
		logger.Stringer("timeout", cfg.Timeout.Timeout()),
		logger.Duration("interval", cfg.Demo.Interval),
		logger.Int("cycles", cfg.Demo.Cycles),
	)

	// 3. 指标
	var metrics *transition.Metrics
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = transition.NewMetrics(reg)
	}

	// 4. 示例程序
	app := demo.New(
		demo.WithOpen(cfg.Demo.InitialVisible),
		demo.WithTimeout(cfg.Timeout.Timeout()),
		demo.WithScheduler(timers),
		demo.WithMetrics(metrics),
		demo.WithOutput(os.Stdout),
		demo.WithLogger(log),
	)
	defer app.Close()

	// 5. 配置热更新
	cfgMgr.OnChange(func(old, new *config.Config) {
		app.Controller().SetTimeout(new.Timeout.Timeout())
		if *logLevel == "" {
			if lvl, err := logger.ParseLevel(new.Logger.Level); err == nil {
				log.SetLevel(lvl)
			}
		}
		log.Info("config reloaded, timeout and log level applied", logger.Stringer("timeout", new.Timeout.Timeout()))
		if old.Demo != new.Demo || old.Metrics != new.Metrics {
			log.Warn("demo and metrics settings take effect after restart")
		}
	})
	if cfgMgr.Path() != "" {
		if err := cfgMgr.Watch(500 * time.Millisecond); err != nil {
			log.Warn("config watch disabled", logger.GetError(err))
		}
	}
	defer cfgMgr.Close()

	// 6. 注册任务
	r := runner.New(runner.WithLogger(log), runner.WithShutdownTimeout(5*time.Second))

	clicker := &demo.Clicker{
		App:      app,
		Timers:   timers,
		Interval: cfg.Demo.Interval,
		Cycles:   cfg.Demo.Cycles,
	}
	var clickerOpts []runner.WorkerOption
	if cfg.Demo.Cycles > 0 {
		clickerOpts = append(clickerOpts, runner.WithExitOnReturn())
	}
	_ = r.Add("clicker", clicker.Run, clickerOpts...)

	if reg != nil {
		server := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		_ = r.Add("metrics-server",
			func(ctx context.Context) error {
				log.Info("metrics server listening", logger.String("addr", cfg.Metrics.Addr))
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			},
			runner.WithStopFunc(func(ctx context.Context) error {
				return server.Shutdown(ctx)
			}),
		)
	}

	r.OnShutdown(func(ctx context.Context) error {
		log.Info("transition demo stopped", logger.Stringer("phase", app.Controller().Phase()))
		_ = log.Sync()
		return nil
	})

	// 7. 运行
	if err := r.Run(); err != nil {
		log.Error("transition demo failed", logger.GetError(err))
		os.Exit(1)
	}
}

// applyFlags 命令行参数优先于配置文件
func applyFlags(base *config.Config) *config.Config {
	cfg := *base
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}
	if *interval > 0 {
		cfg.Demo.Interval = *interval
	}
	if *cycles >= 0 {
		cfg.Demo.Cycles = *cycles
	}
	return &cfg
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
