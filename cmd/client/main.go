package main

import (
	"Hermes/internal/client/config"
	"Hermes/internal/pkg/cron"
	"Hermes/internal/pkg/logger"
	"Hermes/internal/wire"
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger()

	// 依赖注入
	app, err := wire.BuildApplication(cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}
	defer func() {
		_ = app.MeetingStore.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	err = cron.InitCron(app.CronMgr)
	if err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// 首次加载会话列表
	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	if err = app.Chat.LoadConversations(loadCtx); err != nil {
		log.Warn("Initial conversation load failed, realtime resync will retry", "err", err)
	}
	loadCancel()

	// 实时通道连接会话
	g.Go(func() error {
		log.Info("Realtime session starting...")
		return app.Session.Start(ctx)
	})

	// 事件派发循环
	g.Go(func() error {
		log.Info("Event dispatch loop starting...")
		return app.Chat.Run(ctx)
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
