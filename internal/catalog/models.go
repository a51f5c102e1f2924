package catalog

import (
	"context"
	"errors"
	"time"
)

// Product is a catalog item keyed by its business code.
type Product struct {
	ID          string    `json:"id"`
	Code        string    `json:"codigo"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	Price       float64   `json:"precio"`
	Category    string    `json:"categoria"`
	Stock       int       `json:"stock"`
	Supplier    string    `json:"proveedor"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateCode = errors.New("product code already exists")
)

type Store interface {
	List(ctx context.Context) ([]Product, error)
	FindByCode(ctx context.Context, code string) (Product, error)
	Create(ctx context.Context, p *Product) error
}
