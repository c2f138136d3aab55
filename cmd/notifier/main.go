package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-retail-backend.git/internal/config"
	kafkax "github.com/ariefcatur/go-retail-backend.git/internal/kafka"
	"github.com/ariefcatur/go-retail-backend.git/internal/notifier"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
	"github.com/ariefcatur/go-retail-backend.git/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		DB:                db,
		Redis:             rdb,
		ServiceName:       cfg.ServiceName + "-notifier",
		LowStockThreshold: mustAtoi(os.Getenv("LOW_STOCK_THRESHOLD"), "5"),
	}

	group := getenv("NOTIFIER_GROUP", "order-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "8")
	topics := []string{orders.TopicOrderCreated, orders.TopicOrderApproved, orders.TopicOrderRejected}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers)

	go func() {
		log.Printf("notifier consumer started: group=%s topics=%v workers=%d", group, topics, workers)
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
}
