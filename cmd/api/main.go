package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-retail-backend.git/internal/cart"
	"github.com/ariefcatur/go-retail-backend.git/internal/catalog"
	"github.com/ariefcatur/go-retail-backend.git/internal/config"
	"github.com/ariefcatur/go-retail-backend.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-retail-backend.git/internal/kafka"
	"github.com/ariefcatur/go-retail-backend.git/internal/orders"
	"github.com/ariefcatur/go-retail-backend.git/internal/postgres"
	"github.com/ariefcatur/go-retail-backend.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (topic per message)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Repos & handlers
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:     &orders.Repo{DB: db},
		Checkout: &orders.CheckoutRepo{DB: db},
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)
	ch := &httpx.CartHandler{Repo: &cart.Repo{DB: db}}
	ch.Register(router)
	ph := &httpx.ProductsHandler{Store: &catalog.Store{DB: db}}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
