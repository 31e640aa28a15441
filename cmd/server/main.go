package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/keyword-chatbot/internal/bot"
	"github.com/suPer8Hu/keyword-chatbot/internal/chat"
	"github.com/suPer8Hu/keyword-chatbot/internal/config"
	"github.com/suPer8Hu/keyword-chatbot/internal/db"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/keyword-chatbot/internal/logger"
	"github.com/suPer8Hu/keyword-chatbot/internal/store/memstore"
	"github.com/suPer8Hu/keyword-chatbot/internal/store/rabbitmq"
	"github.com/suPer8Hu/keyword-chatbot/internal/store/redisstore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	port := flag.String("port", "", "listen address, overrides server.port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("database connect failed", "err", err)
	}
	repo := chat.NewRepo(gdb)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatal("automigrate failed", "err", err)
	}

	var selector *bot.Selector
	if cfg.Chat.RandomSeed != 0 {
		selector = bot.NewSeededSelector(cfg.Chat.RandomSeed, nil)
	} else {
		selector = bot.NewSelector(nil, nil)
	}
	svc := chat.NewService(repo, bot.NewResponder(nil, selector), log, cfg.Chat.ReplyDelay)

	seed, err := seedRules(cfg.Chat)
	if err != nil {
		log.Fatal("load rules file failed", "path", cfg.Chat.RulesFile, "err", err)
	}
	if err := svc.LoadRules(ctx, seed); err != nil {
		log.Fatal("load rules failed", "err", err)
	}

	var binder handlers.SessionBinder
	if cfg.Redis.Addr != "" {
		rds, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SessionTTL)
		if err != nil {
			log.Fatal("redis connect failed", "err", err)
		}
		defer rds.Close()
		binder = rds
		log.Info("session bindings in redis", "addr", cfg.Redis.Addr)
	} else {
		binder = memstore.New(cfg.Redis.SessionTTL)
		log.Info("session bindings in memory")
	}

	if cfg.Rabbit.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			log.Fatal("rabbit connect failed", "err", err)
		}
		defer pub.Close()
		svc.SetEventPublisher(pub)
		log.Info("publishing exchange events", "queue", cfg.Rabbit.Queue)
	}

	if !cfg.AdminEnabled() {
		log.Warn("admin api disabled: set admin.password_hash and admin.jwt_secret to enable it")
	}

	h := handlers.NewHandler(cfg, log, svc, binder)
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           httpapi.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Server.Port, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
}

// seedRules returns the rules written into an empty rule store.
func seedRules(cfg config.ChatConfig) ([]bot.Rule, error) {
	if !cfg.SeedRules {
		return nil, nil
	}
	if cfg.RulesFile != "" {
		return bot.LoadRulesFile(cfg.RulesFile)
	}
	return bot.DefaultRules(), nil
}
