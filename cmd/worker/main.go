package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/keyword-chatbot/internal/bot"
	"github.com/suPer8Hu/keyword-chatbot/internal/chat"
	"github.com/suPer8Hu/keyword-chatbot/internal/config"
	"github.com/suPer8Hu/keyword-chatbot/internal/db"
	"github.com/suPer8Hu/keyword-chatbot/internal/logger"
	"github.com/suPer8Hu/keyword-chatbot/internal/metrics"
	"github.com/suPer8Hu/keyword-chatbot/internal/store/rabbitmq"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Rabbit.URL == "" {
		log.Fatal("rabbit.url is not configured")
	}

	gdb, err := db.Connect(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("database connect failed", "err", err)
	}
	repo := chat.NewRepo(gdb)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatal("automigrate failed", "err", err)
	}
	// the worker only records hits; it never answers messages
	svc := chat.NewService(repo, bot.NewResponder(nil, nil), log, 0)

	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal("rabbit dial failed", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel failed", "err", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.Rabbit.Queue); err != nil {
		log.Fatal("queue declare failed", "err", err)
	}

	// strict concurrency control
	concurrency := cfg.Rabbit.Concurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos failed", "err", err)
	}

	msgs, err := ch.Consume(cfg.Rabbit.Queue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume failed", "err", err)
	}
	retrier := rabbitmq.NewRetrier(ch, cfg.Rabbit.Queue, cfg.Rabbit.MaxRetries, cfg.Rabbit.RetryDelay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Rabbit.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.Rabbit.MetricsAddr)
		go func() {
			log.Info("metrics listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info("worker started", "queue", cfg.Rabbit.Queue, "concurrency", concurrency,
		"max_retries", cfg.Rabbit.MaxRetries)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(ctx, log.With("worker", workerID), svc, retrier, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

type exchangeRecorder interface {
	RecordExchange(ctx context.Context, ev chat.ExchangeEvent) error
}

type deliveryRetrier interface {
	Retry(ctx context.Context, d amqp.Delivery) (attempt int, ok bool, err error)
}

// handleDelivery settles exactly one delivery. Undecodable events and
// events out of retries are rejected to the dead-letter queue; other
// failures take another trip through the retry queue.
func handleDelivery(ctx context.Context, log *logger.Logger, rec exchangeRecorder, retry deliveryRetrier, d amqp.Delivery) {
	ev, err := chat.DecodeExchangeEvent(d.Body)
	if err != nil {
		metrics.EventsConsumed.WithLabelValues("bad").Inc()
		log.Warn("bad exchange event", "message_id", d.MessageId, "err", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := rec.RecordExchange(ctx, ev); err != nil {
		log.Error("record exchange failed", "event_id", ev.EventID, "cost", time.Since(start), "err", err)

		// a cancelled context means shutdown; let the broker redeliver
		if errors.Is(err, context.Canceled) {
			metrics.EventsConsumed.WithLabelValues("failed").Inc()
			_ = d.Nack(false, true)
			return
		}

		attempt, ok, rerr := retry.Retry(ctx, d)
		if rerr != nil {
			log.Error("schedule retry failed", "event_id", ev.EventID, "attempt", attempt, "err", rerr)
		}
		if !ok {
			metrics.EventsConsumed.WithLabelValues("dead").Inc()
			log.Warn("exchange event dead-lettered", "event_id", ev.EventID, "attempt", attempt)
			_ = d.Nack(false, false)
			return
		}
		metrics.EventsConsumed.WithLabelValues("retried").Inc()
		if err := d.Ack(false); err != nil {
			log.Warn("ack failed", "event_id", ev.EventID, "err", err)
		}
		return
	}

	metrics.EventsConsumed.WithLabelValues("ok").Inc()
	if err := d.Ack(false); err != nil {
		log.Warn("ack failed", "event_id", ev.EventID, "err", err)
	}
}
