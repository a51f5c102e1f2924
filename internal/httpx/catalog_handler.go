package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/tiendalabs/tienda-api/internal/catalog"
	"github.com/tiendalabs/tienda-api/internal/events"
	kafkax "github.com/tiendalabs/tienda-api/internal/kafka"
	"github.com/tiendalabs/tienda-api/internal/redisx"
)

type CatalogHandler struct {
	Store    catalog.Store
	Producer Publisher
	Redis    *redis.Client // nil disables the listing cache
	Service  string
}

// Precio and Stock are json.Number so the handler accepts both `"precio": 10`
// and `"precio": "10"`, as the frontend sends form values.
type createProductReq struct {
	Code        string      `json:"codigo"`
	Name        string      `json:"nombre"`
	Description string      `json:"descripcion"`
	Price       json.Number `json:"precio"`
	Category    string      `json:"categoria"`
	Stock       json.Number `json:"stock"`
	Supplier    string      `json:"proveedor"`
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/productos", h.listProducts)
	r.Post("/productos", h.createProduct)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyCatalogCache).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	ps, err := h.Store.List(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al obtener los productos"})
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}

	if h.Redis != nil {
		if b, err := json.Marshal(ps); err == nil {
			if err := h.Redis.Set(ctx, redisx.KeyCatalogCache, b, redisx.TTLCatalogCache).Err(); err != nil {
				log.Printf("catalog cache set: %v", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Code == "" || req.Name == "" || req.Category == "" || req.Price == "" || req.Stock == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Todos los campos son requeridos excepto descripción y proveedor"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// duplicate check comes before price/stock validation, matching the
	// contract the frontend was written against
	_, err := h.Store.FindByCode(ctx, req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Ya existe un producto con ese código"})
		return
	case !errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al registrar el producto"})
		return
	}

	price, err := req.Price.Float64()
	if err != nil || price <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El precio debe ser un número mayor a 0"})
		return
	}
	stockF, err := req.Stock.Float64()
	if err != nil || stockF < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El stock debe ser un número mayor o igual a 0"})
		return
	}
	stock := int(stockF) // fractional stock truncates toward zero

	p := catalog.Product{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Stock:       stock,
		Supplier:    req.Supplier,
	}
	if err := h.Store.Create(ctx, &p); err != nil {
		if errors.Is(err, catalog.ErrDuplicateCode) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Ya existe un producto con ese código"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al registrar el producto"})
		return
	}

	if h.Redis != nil {
		if err := h.Redis.Del(ctx, redisx.KeyCatalogCache).Err(); err != nil {
			log.Printf("catalog cache invalidate: %v", err)
		}
	}
	h.publishCreated(r, p)

	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) publishCreated(r *http.Request, p catalog.Product) {
	if h.Producer == nil {
		return
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventProductCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: p.ID,
		Payload: kafkax.MustMarshal(events.ProductCreatedPayload{
			ProductID: p.ID,
			Code:      p.Code,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			Stock:     p.Stock,
		}),
	}
	h.Producer.Publish(events.PartitionKey(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventProductCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
