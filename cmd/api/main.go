package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/rulebook-rag/internal/bootstrap"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/handlers"
	"github.com/akolanti/rulebook-rag/internal/middleware"
	"github.com/akolanti/rulebook-rag/internal/server"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

var listenAddr string

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger_i.Init(cfg)
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", cfg.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	app, err := bootstrap.New(serviceContext, cfg, "")
	if err != nil {
		logger.Error("External services failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	handlers.InitRagHandler(app.Service)
	middleware.InitRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
