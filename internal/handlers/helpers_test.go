package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shoe-market-backend/internal/repository/memory"
	"shoe-market-backend/internal/services"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminPhone = "5550000"

type testEnv struct {
	router     http.Handler
	bookkeeper *services.Bookkeeper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stores := memory.New()
	hasher := services.NewPasswordHasher(bcrypt.MinCost)
	tokens := services.NewTokenManager("handler-test-secret", "shoe-market-test", time.Hour)
	users := services.NewUserService(stores.Users, hasher)
	auth := services.NewAuthService(users, hasher, tokens, []string{testAdminPhone})
	shoes := services.NewShoeService(stores.Shoes)
	bookkeeper := services.NewBookkeeper(1, 32, time.Second)
	t.Cleanup(bookkeeper.Close)
	hub := services.NewWSHub()
	records := services.NewRecordService(stores.Records, stores.Users, stores.Shoes, bookkeeper, hub, nil)

	router := NewRouter(Services{
		Auth:       auth,
		Users:      users,
		Shoes:      shoes,
		Records:    records,
		Hub:        hub,
		Bookkeeper: bookkeeper,
	}, RouterOptions{
		RequestTimeout: 5 * time.Second,
		CORSOrigins:    []string{"*"},
		StartedAt:      time.Now(),
	})

	return &testEnv{router: router, bookkeeper: bookkeeper}
}

// performRequest sends a JSON request through the router
func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type session struct {
	UserID string
	Token  string
}

// signupAndLogin registers a user and returns its id and bearer token
func (e *testEnv) signupAndLogin(t *testing.T, name, phone string) session {
	t.Helper()
	creds := map[string]string{"userName": name, "phoneNumber": phone, "password": "secret123"}

	w := performRequest(e.router, http.MethodPost, "/users/signup", creds, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(e.router, http.MethodPost, "/users/login", creds, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[services.LoginResponse](t, w)
	return session{UserID: resp.UserID, Token: resp.Token}
}

// createShoe lists a shoe as admin and returns its id
func (e *testEnv) createShoe(t *testing.T, admin session, category, subCategory string) string {
	t.Helper()
	w := performRequest(e.router, http.MethodPost, "/shoes", map[string]any{
		"price":       89.99,
		"category":    category,
		"subCategory": subCategory,
		"sizes":       []float64{41, 42},
		"imageRef":    "https://images.example.com/shoe.jpg",
	}, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	shoe := decode[map[string]any](t, w)
	return shoe["id"].(string)
}
