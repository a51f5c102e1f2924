package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/tiendalabs/tienda-api/internal/events"
	kafkax "github.com/tiendalabs/tienda-api/internal/kafka"
	"github.com/tiendalabs/tienda-api/internal/redisx"
)

// Service consumes domain events and writes an audit line for each one.
// Redis keeps a dedup key per event id so redelivered messages are logged
// once; a nil client disables dedup.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleAccountRegistered(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventAccountRegistered {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.AccountRegisteredPayload](env.Payload)
	if err != nil {
		return err
	}
	log.Printf("audit: usuario registrado id=%s correo=%s producer=%s", p.AccountID, p.Email, env.Producer)
	return nil
}

func (s *Service) HandleProductCreated(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventProductCreated {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.ProductCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	log.Printf("audit: producto creado id=%s codigo=%s precio=%.2f stock=%d producer=%s",
		p.ProductID, p.Code, p.Price, p.Stock, env.Producer)
	return nil
}

func (s *Service) seen(ctx context.Context, eventID string) bool {
	if s.Redis == nil {
		return false
	}
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return true
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return false
}
