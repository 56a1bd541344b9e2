package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/i-snrdra/SWAG/internal/config"
	"github.com/i-snrdra/SWAG/internal/handlers"
	"github.com/i-snrdra/SWAG/internal/repository"
	"github.com/i-snrdra/SWAG/internal/services"
	"github.com/i-snrdra/SWAG/internal/whatsapp"
	xhttp "github.com/i-snrdra/SWAG/pkg/http"
	"github.com/i-snrdra/SWAG/pkg/logger"
	"github.com/i-snrdra/SWAG/pkg/pg"
	"github.com/i-snrdra/SWAG/pkg/prom"
	"github.com/i-snrdra/SWAG/pkg/redis"
	"github.com/i-snrdra/SWAG/pkg/worker"
)

const inboundWorkers = 4

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := config.Get().AppEnv == "dev"
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	if dir := config.Get().MigrationsDir; dir != "" {
		if err := pg.Migrate(writeConf, dir); err != nil {
			logger.Error("failed running migrations", "error", err)
			return
		}
	}

	// rule cache is optional; without redis every match hits postgres
	var ruleCache services.RuleCache
	if addr := config.Get().RedisAddr; addr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{addr},
			ClientName: "default",
			DB:         config.Get().RedisDatabase,
			Username:   config.Get().RedisUsername,
			Password:   config.Get().RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		ruleCache = redisAdap
	}

	host, _ := os.Hostname()
	if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed creating prometheus registry", "error", err)
		return
	}

	session := whatsapp.NewManager(whatsapp.Config{
		SessionPath:  config.Get().SessionPath,
		QRToTerminal: true,
	})
	if err := session.Initialize(context.Background()); err != nil {
		logger.Error("failed initializing whatsapp session", "error", err)
		return
	}

	messageRepo := repository.NewMessageRepository(db)
	autoReplyRepo := repository.NewAutoReplyRepository(db)

	// services
	autoReplyService := services.NewAutoReplyService(autoReplyRepo, ruleCache)
	messageService := services.NewMessageService(messageRepo, session, autoReplyService)

	// handlers
	messageHandler := handlers.NewMessageHandler(messageService, config.Get().UploadDir)
	autoReplyHandler := handlers.NewAutoReplyHandler(autoReplyService)
	statusHandler := handlers.NewStatusHandler(messageService)
	healthHandler := handlers.NewHealthHandler()

	g := s.Router.Group("/api")
	handlers.RegisterMessageRoutes(g, messageHandler)
	handlers.RegisterAutoReplyRoutes(g, autoReplyHandler)
	handlers.RegisterStatusRoutes(g, statusHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)
	s.Router.GET("/metrics", prom.Handler())

	// inbound messages fan out to the pool so a slow auto-reply never
	// blocks the session's event loop
	jobs := make(chan interface{}, 256)
	pool := worker.NewWorkerManager(256, inboundWorkers, jobs)
	pool.SetWorker(func(workerIndex int, job interface{}) {
		in, ok := job.(whatsapp.Inbound)
		if !ok {
			return
		}
		if err := messageService.HandleInbound(context.Background(), in); err != nil {
			logger.Error("failed handling inbound message", "chat", in.Chat, "error", err)
		}
	})
	go func() {
		if err := pool.Start(); err != nil {
			logger.Info("inbound worker pool stopped", "reason", err)
		}
	}()
	go func() {
		for in := range session.Events() {
			pool.Enqueue(in)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	logger.Info("shutting down")
	s.Shutdown()
	pool.Exit()
	session.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
