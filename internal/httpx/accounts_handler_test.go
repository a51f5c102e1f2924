package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tiendalabs/tienda-api/internal/accounts"
)

type fakeAccountStore struct {
	mu      sync.RWMutex
	byEmail map[string]accounts.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byEmail: make(map[string]accounts.Account)}
}

func (s *fakeAccountStore) List(ctx context.Context) ([]accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]accounts.Account, 0, len(s.byEmail))
	for _, a := range s.byEmail {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeAccountStore) FindByEmail(ctx context.Context, email string) (accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[email]
	if !ok {
		return accounts.Account{}, accounts.ErrNotFound
	}
	return a, nil
}

func (s *fakeAccountStore) Create(ctx context.Context, a *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[a.Email]; exists {
		return accounts.ErrDuplicateEmail
	}
	if a.ID == "" {
		a.ID = "acc-" + a.Email
	}
	s.byEmail[a.Email] = *a
	return nil
}

func newAccountsApp() (*fakeAccountStore, http.Handler) {
	store := newFakeAccountStore()
	router := NewRouter([]string{"*"})
	h := &AccountsHandler{Store: store, Service: "test-api"}
	h.Register(router)
	return store, router
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRegisterNewEmail(t *testing.T) {
	store, app := newAccountsApp()

	rr := postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"a@x.com","contrasenia":"password1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["mensaje"] == "" {
		t.Fatalf("expected mensaje in response")
	}

	acct, err := store.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if acct.PasswordHash == "password1" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("password1")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, app := newAccountsApp()

	rr := postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"dup@x.com","contrasenia":"secret12"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rr.Code)
	}
	// other fields differ, email is what matters
	rr = postJSON(t, app, "/usuarios", `{"nombre":"Otro","apellido":"Nombre","correo":"dup@x.com","contrasenia":"different"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second register: expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "registrado") {
		t.Fatalf("expected duplicate email message, got %s", rr.Body.String())
	}
}

func TestRegisterMissingFields(t *testing.T) {
	_, app := newAccountsApp()

	rr := postJSON(t, app, "/usuarios", `{"nombre":"Ana","correo":"a@x.com"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	_, app := newAccountsApp()

	postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"a@x.com","contrasenia":"password1"}`)
	rr := postJSON(t, app, "/login", `{"correo":"a@x.com","contrasenia":"password1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Mensaje string         `json:"mensaje"`
		Usuario map[string]any `json:"usuario"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Usuario["correo"] != "a@x.com" {
		t.Fatalf("expected usuario.correo a@x.com, got %v", resp.Usuario["correo"])
	}
	if _, leaked := resp.Usuario["contrasenia"]; leaked {
		t.Fatalf("password hash leaked in login response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, app := newAccountsApp()

	postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"a@x.com","contrasenia":"password1"}`)
	// single character mutation
	rr := postJSON(t, app, "/login", `{"correo":"a@x.com","contrasenia":"password2"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	_, app := newAccountsApp()

	rr := postJSON(t, app, "/login", `{"correo":"nobody@x.com","contrasenia":"whatever"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no encontrado") {
		t.Fatalf("expected not-found message, got %s", rr.Body.String())
	}
}

func TestListAccountsHidesHash(t *testing.T) {
	_, app := newAccountsApp()

	postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"a@x.com","contrasenia":"password1"}`)
	req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 account, got %d", len(list))
	}
	if _, leaked := list[0]["contrasenia"]; leaked {
		t.Fatalf("password hash leaked in listing")
	}
	if strings.Contains(rr.Body.String(), "$2a$") {
		t.Fatalf("bcrypt hash leaked in listing body")
	}
}

// racingAccountStore simulates the window where a concurrent registration
// commits between the duplicate lookup and the insert: the lookup sees
// nothing, the unique index rejects the write.
type racingAccountStore struct{ *fakeAccountStore }

func (s *racingAccountStore) FindByEmail(ctx context.Context, email string) (accounts.Account, error) {
	return accounts.Account{}, accounts.ErrNotFound
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	store := newFakeAccountStore()
	if err := store.Create(context.Background(), &accounts.Account{
		Name: "Ana", Surname: "Diaz", Email: "dup@x.com", PasswordHash: "x",
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	router := NewRouter([]string{"*"})
	h := &AccountsHandler{Store: &racingAccountStore{store}, Service: "test-api"}
	h.Register(router)

	rr := postJSON(t, router, "/usuarios", `{"nombre":"Otra","apellido":"Persona","correo":"dup@x.com","contrasenia":"secret12"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from unique-index conflict, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "registrado") {
		t.Fatalf("expected duplicate email message, got %s", rr.Body.String())
	}
}

func TestRegisterThenLogin(t *testing.T) {
	_, app := newAccountsApp()

	rr := postJSON(t, app, "/usuarios", `{"nombre":"Ana","apellido":"Diaz","correo":"a@x.com","contrasenia":"password1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rr.Code)
	}
	rr = postJSON(t, app, "/login", `{"correo":"a@x.com","contrasenia":"password1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rr.Code)
	}
}
