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

	"github.com/kev205/mssales/internal/catalog"
	"github.com/kev205/mssales/internal/config"
	"github.com/kev205/mssales/internal/httpx"
	kafkax "github.com/kev205/mssales/internal/kafka"
	"github.com/kev205/mssales/internal/postgres"
	"github.com/kev205/mssales/internal/purchasing"
	"github.com/kev205/mssales/internal/redisx"
	"github.com/kev205/mssales/internal/telesales"
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
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	created := kafkax.NewProducer(cfg.KafkaBrokers, telesales.TopicOrderCreated, 1024)
	created.Start(ctx)
	confirmed := kafkax.NewProducer(cfg.KafkaBrokers, telesales.TopicOrderConfirmed, 1024)
	confirmed.Start(ctx)

	// Repos & handlers
	salesRepo := &telesales.Repo{DB: db}
	router := httpx.NewRouter()
	(&httpx.ProductsHandler{Repo: &catalog.Repo{DB: db}}).Register(router)
	(&httpx.PurchasingHandler{Repo: &purchasing.Repo{DB: db}}).Register(router)
	(&httpx.TelesalesHandler{
		Repo:      salesRepo,
		Confirmer: &telesales.Confirmer{Store: salesRepo},
		Redis:     rdb,
		Created:   created,
		Confirmed: confirmed,
		Service:   cfg.ServiceName,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	cancel() // stop producer loops, flush buffered events
	created.WaitClosed()
	confirmed.WaitClosed()
}
