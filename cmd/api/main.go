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

	"github.com/tiendalabs/tienda-api/internal/accounts"
	"github.com/tiendalabs/tienda-api/internal/catalog"
	"github.com/tiendalabs/tienda-api/internal/config"
	"github.com/tiendalabs/tienda-api/internal/events"
	"github.com/tiendalabs/tienda-api/internal/httpx"
	kafkax "github.com/tiendalabs/tienda-api/internal/kafka"
	"github.com/tiendalabs/tienda-api/internal/postgres"
	"github.com/tiendalabs/tienda-api/internal/redisx"
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

	// Kafka producers, one per topic
	pAcc := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicAccountRegistered, 1024)
	pAcc.Start(ctx)
	pProd := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicProductCreated, 1024)
	pProd.Start(ctx)

	// Repos & handlers
	router := httpx.NewRouter(cfg.AllowedOrigins)
	ah := &httpx.AccountsHandler{
		Store:    &accounts.Repo{DB: db},
		Producer: pAcc,
		Service:  cfg.ServiceName,
	}
	ah.Register(router)
	ch := &httpx.CatalogHandler{
		Store:    &catalog.Repo{DB: db},
		Producer: pProd,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	ch.Register(router)

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
	pAcc.Close() // close inbox -> flush & close writer
	pProd.Close()
	cancel()
	pAcc.WaitClosed()
	pProd.WaitClosed()
}
