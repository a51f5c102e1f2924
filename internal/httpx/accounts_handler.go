package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiendalabs/tienda-api/internal/accounts"
	"github.com/tiendalabs/tienda-api/internal/events"
	kafkax "github.com/tiendalabs/tienda-api/internal/kafka"
)

// Cost factor the original service used for new password hashes.
const bcryptCost = 10

type AccountsHandler struct {
	Store    accounts.Store
	Producer Publisher
	Service  string
}

type registerReq struct {
	Name     string `json:"nombre"`
	Surname  string `json:"apellido"`
	Email    string `json:"correo"`
	Password string `json:"contrasenia"`
}

type loginReq struct {
	Email    string `json:"correo"`
	Password string `json:"contrasenia"`
}

func (h *AccountsHandler) Register(r *chi.Mux) {
	r.Get("/usuarios", h.listAccounts)
	r.Post("/usuarios", h.registerAccount)
	r.Post("/login", h.login)
}

func (h *AccountsHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.List(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al obtener los usuarios"})
		return
	}
	if list == nil {
		list = []accounts.Account{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AccountsHandler) registerAccount(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.Surname == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Todos los campos son requeridos"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.Store.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El correo electrónico ya está registrado"})
		return
	case !errors.Is(err, accounts.ErrNotFound):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al registrar el usuario"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al registrar el usuario"})
		return
	}

	acct := accounts.Account{
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.Store.Create(ctx, &acct); err != nil {
		// another registration won the race on the unique index
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El correo electrónico ya está registrado"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al registrar el usuario"})
		return
	}

	h.publishRegistered(r, acct)

	writeJSON(w, http.StatusCreated, map[string]string{"mensaje": "Usuario registrado correctamente"})
}

func (h *AccountsHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	acct, err := h.Store.FindByEmail(ctx, req.Email)
	if errors.Is(err, accounts.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"mensaje": "Usuario no encontrado"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"mensaje": "Error del servidor"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"mensaje": "contraseña incorrecta"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mensaje": "Inicio de sesión exitoso",
		"usuario": acct,
	})
}

func (h *AccountsHandler) publishRegistered(r *http.Request, acct accounts.Account) {
	if h.Producer == nil {
		return
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventAccountRegistered,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: acct.ID,
		Payload: kafkax.MustMarshal(events.AccountRegisteredPayload{
			AccountID: acct.ID,
			Email:     acct.Email,
		}),
	}
	h.Producer.Publish(events.PartitionKey(acct.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventAccountRegistered)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
