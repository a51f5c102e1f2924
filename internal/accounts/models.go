package accounts

import (
	"context"
	"errors"
	"time"
)

// Account is a registered user identity. The bcrypt hash never leaves the
// process: it is excluded from every JSON response.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	Surname      string    `json:"apellido"`
	Email        string    `json:"correo"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Store interface {
	List(ctx context.Context) ([]Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, a *Account) error
}
