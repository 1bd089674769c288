package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"futures-ai/internal/app"
	"futures-ai/internal/config"
	"futures-ai/internal/log"
	"futures-ai/internal/store"
)

func main() {
	var (
		configPath  string
		instruction string
		scan        bool
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&instruction, "instruction", "", "自然语言交易指令，例如 \"买入 2 张 BTC-28MAR25\"")
	flag.BoolVar(&scan, "scan", false, "执行一轮机会扫描")
	flag.Parse()

	if instruction == "" && !scan {
		fmt.Fprintln(os.Stderr, "必须指定 -instruction 或 -scan 其中之一")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		logger.Error("初始化数据库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	tradingApp, err := app.New(cfg, logger, sqliteStore)
	if err != nil {
		logger.Error("初始化失败", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if instruction != "" {
		err = tradingApp.RunInstruction(ctx, instruction)
	} else {
		err = tradingApp.RunScan(ctx)
	}
	if err != nil {
		logger.Error("运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("已完成并安全退出")
}
