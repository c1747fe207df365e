package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/todo-app/config"
	"github.com/example/todo-app/logging"
	"github.com/example/todo-app/metrics"
	"github.com/example/todo-app/modules/api"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/notification"
	"github.com/example/todo-app/modules/ratelimit"
	"github.com/example/todo-app/modules/share"
	"github.com/example/todo-app/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPromMetrics(reg)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		logger.Fatal("failed to create application", zap.Error(err))
	}

	authModule := auth.NewModule(cfg, logger)
	taskModule := task.NewModule(cfg, logger, promMetrics)
	shareModule := share.NewModule(cfg, logger)
	notificationModule := notification.NewModule(cfg, logger, promMetrics)
	rateLimitModule := ratelimit.NewModule(cfg, logger, promMetrics)

	apiModule := api.NewModule(cfg, logger, promMetrics, reg)
	apiModule.SetRateLimitModule(rateLimitModule)
	apiModule.AddHealthCheck(authModule.Name(), authModule)
	apiModule.AddHealthCheck(taskModule.Name(), taskModule)
	apiModule.AddHealthCheck(shareModule.Name(), shareModule)
	apiModule.AddHealthCheck(notificationModule.Name(), notificationModule)
	apiModule.AddHealthCheck(rateLimitModule.Name(), rateLimitModule)

	// Order: independent modules first, then dependent modules
	app.Register(rateLimitModule)
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(shareModule)
	app.Register(notificationModule) // consumes task and share events
	app.Register(apiModule)          // depends on auth, task and share

	if err := app.Start(context.Background()); err != nil {
		logger.Fatal("failed to start application", zap.Error(err))
	}

	logger.Info("application started",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.ListenAddr()),
		zap.Bool("google_sign_in", cfg.Google.Enabled()),
		zap.Bool("smtp", cfg.Mail.Host != ""),
		zap.Bool("redis", cfg.Redis.Addr != ""),
	)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("application exited", zap.Int("code", exitCode))
	_ = logger.Sync()
	os.Exit(exitCode)
}
