package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/auth"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/quanviet-pos/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthStore struct {
	getByEmailFn func(ctx context.Context, email string) (database.User, error)
	getByPinFn   func(ctx context.Context, pin string) (database.User, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (database.User, error)
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByPin(ctx context.Context, pin string) (database.User, error) {
	if m.getByPinFn != nil {
		return m.getByPinFn(ctx, pin)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testUser(t *testing.T, password string) database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:             uuid.New(),
		FullName:       "Trần Thị Hoa",
		Email:          "hoa@quanviet.vn",
		HashedPassword: string(hashed),
		Pin:            pgtype.Text{String: "4821", Valid: true},
		Role:           enum.UserRoleCashier,
		IsActive:       true,
	}
}

func TestLogin_HappyPath(t *testing.T) {
	user := testUser(t, "banhmi123")
	store := &mockAuthStore{
		getByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			if email != user.Email {
				t.Errorf("email: got %v, want %v", email, user.Email)
			}
			return user, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "banhmi123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("access_token missing")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("refresh_token missing")
	}

	// The access token must round-trip through our own validator.
	claims, err := auth.ValidateToken(testJWTSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user: got %v, want %v", claims.UserID, user.ID)
	}
	if claims.Role != enum.UserRoleCashier {
		t.Errorf("token role: got %v, want CASHIER", claims.Role)
	}

	u := resp["user"].(map[string]interface{})
	if u["email"] != user.Email {
		t.Errorf("user email: got %v, want %v", u["email"], user.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := testUser(t, "banhmi123")
	store := &mockAuthStore{
		getByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return user, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "wrong",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "nobody@quanviet.vn",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestPinLogin_HappyPath(t *testing.T) {
	user := testUser(t, "banhmi123")
	store := &mockAuthStore{
		getByPinFn: func(ctx context.Context, pin string) (database.User, error) {
			if pin != "4821" {
				t.Errorf("pin: got %v, want 4821", pin)
			}
			return user, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/pin-login", map[string]string{"pin": "4821"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("access_token missing")
	}
}

func TestPinLogin_UnknownPin(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doRequest(t, router, "POST", "/auth/pin-login", map[string]string{"pin": "0000"})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	user := testUser(t, "banhmi123")
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			if id != user.ID {
				t.Errorf("user ID: got %v, want %v", id, user.ID)
			}
			return user, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("access_token missing")
	}
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	user := testUser(t, "banhmi123")
	user.IsActive = false
	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	store := &mockAuthStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			return user, nil
		},
	}

	router := setupAuthRouter(store)
	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})
	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}
