package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ganttboard/config"
	"ganttboard/internal/events"
	"ganttboard/internal/handler"
	"ganttboard/internal/httpserver"
	"ganttboard/internal/service/auth"
	"ganttboard/pkg/circuitbreaker"
	"ganttboard/pkg/mq"
	"ganttboard/pkg/redis"
	"ganttboard/pkg/util"
)

// App 持有 HTTP 服务器及其依赖，Close 按相反顺序释放
type App struct {
	Server *http.Server
	Auth   *auth.Service

	logger  *zap.Logger
	closers []func()
}

// New 组装所有依赖；Redis 与 MQ 为可选，未配置或连接失败时降级运行
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{logger: log}

	stores, err := OpenStores(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, stores.Close)

	checks := []httpserver.ReadinessCheck{{Name: "db", Check: stores.Ping}}

	var guard *auth.LoginGuard
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, login failure limit disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			counter := util.NewRetryCounter(rdb, cfg.RateLimit.LockoutWindow)
			guard = auth.NewLoginGuard(counter, cfg.RateLimit.MaxLoginFailures, log)
			checks = append(checks, httpserver.ReadinessCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	publisher := events.Nop()
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("RabbitMQ unavailable, domain events disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, p.Close)
			breaker := circuitbreaker.New(circuitbreaker.Config{
				OnStateChange: func(from, to circuitbreaker.State) {
					log.Warn("Event publisher circuit breaker state changed",
						zap.String("from", from.String()),
						zap.String("to", to.String()),
					)
				},
			})
			publisher = events.NewPublisher(p, breaker, log)
			checks = append(checks, httpserver.ReadinessCheck{
				Name: "mq",
				Check: func(context.Context) error {
					if !p.IsConnected() {
						return mq.ErrNotConnected
					}
					return nil
				},
			})
			log.Info("RabbitMQ publisher ready", zap.String("exchange", mq.ExchangeName))
		}
	}

	a.Auth = auth.NewService(stores.Users, cfg.JWT.Secret, cfg.JWT.TTL, guard, log)
	if err := ProvisionAdmin(ctx, a.Auth, cfg.Admin); err != nil {
		a.Close()
		return nil, err
	}

	resp := handler.Responder{Production: cfg.App.IsProduction()}
	router := httpserver.NewRouter(httpserver.Options{
		AuthHandler:           handler.NewAuthHandler(a.Auth, resp, log),
		ProjectHandler:        handler.NewProjectHandler(stores.Projects, stores.Tasks, publisher, resp, log),
		TaskHandler:           handler.NewTaskHandler(stores.Tasks, stores.Projects, publisher, resp, log),
		AuthService:           a.Auth,
		Responder:             resp,
		Logger:                log,
		ReadinessChecks:       checks,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		TrustedProxies:        cfg.Server.TrustedProxies,
		StaticDir:             cfg.Server.StaticDir,
		AuthRequestsPerMinute: cfg.RateLimit.AuthRequestsPerMinute,
		AuthBurst:             cfg.RateLimit.AuthBurst,
	})

	a.Server = &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Close 释放 New 中打开的连接
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
