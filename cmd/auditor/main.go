package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tiendalabs/tienda-api/internal/audit"
	"github.com/tiendalabs/tienda-api/internal/config"
	"github.com/tiendalabs/tienda-api/internal/events"
	kafkax "github.com/tiendalabs/tienda-api/internal/kafka"
	"github.com/tiendalabs/tienda-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (dedup)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &audit.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-auditor",
	}

	group := getenv("AUDITOR_GROUP", "auditor-svc")
	workers := mustAtoi(os.Getenv("AUDITOR_WORKERS"), "4")

	cAcc := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicAccountRegistered, workers)
	cProd := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicProductCreated, workers)

	go func() {
		log.Printf("auditor consumer started: group=%s topic=%s workers=%d", group, events.TopicAccountRegistered, workers)
		if err := cAcc.Start(ctx, svc.HandleAccountRegistered); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()
	go func() {
		log.Printf("auditor consumer started: group=%s topic=%s workers=%d", group, events.TopicProductCreated, workers)
		if err := cProd.Start(ctx, svc.HandleProductCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down auditor...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

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
