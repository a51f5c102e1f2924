package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, codigo, nombre, descripcion, precio, categoria, stock, proveedor, created_at
                                FROM products ORDER BY codigo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.Supplier, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) FindByCode(ctx context.Context, code string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, codigo, nombre, descripcion, precio, categoria, stock, proveedor, created_at
                             FROM products WHERE codigo=$1`, code).
		Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.Supplier, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Create inserts the product. The unique index on codigo catches concurrent
// creations that both passed the FindByCode check.
func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, codigo, nombre, descripcion, precio, categoria, stock, proveedor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Code, p.Name, p.Description, p.Price, p.Category, p.Stock, p.Supplier, p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
