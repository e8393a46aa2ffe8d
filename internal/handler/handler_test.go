package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/security/auth"
	"github.com/yourorg/roomstay/internal/security/middleware"
	"github.com/yourorg/roomstay/internal/service"
)

type stubRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func (r *stubRoomRepo) Create(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.RoomNumber == room.RoomNumber {
			return domain.ErrRoomNumberTaken
		}
	}
	room.Version = 1
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	stored := *room
	r.rooms[room.ID] = &stored
	return nil
}

func (r *stubRoomRepo) GetByID(_ context.Context, id string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *stubRoomRepo) List(_ context.Context) ([]*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		copied := *room
		out = append(out, &copied)
	}
	return out, nil
}

func (r *stubRoomRepo) Update(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rooms[room.ID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return domain.ErrVersionConflict
	}
	room.Version++
	room.UpdatedAt = time.Now()
	copied := *room
	r.rooms[room.ID] = &copied
	return nil
}

func (r *stubRoomRepo) Delete(_ context.Context, id string, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if stored.Version != version {
		return domain.ErrVersionConflict
	}
	delete(r.rooms, id)
	return nil
}

type stubCategoryRepo struct {
	categories map[string]*domain.Category
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

type stubMedia struct {
	mu     sync.Mutex
	nextID int
}

func (m *stubMedia) Upload(_ context.Context, _ string, _ []byte) (*domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("asset-%d", m.nextID)
	return &domain.MediaAsset{ID: id, URL: m.AssetURL(id)}, nil
}

func (m *stubMedia) Delete(_ context.Context, _ string) error { return nil }

func (m *stubMedia) AssetURL(assetID string) string { return "https://media.test/" + assetID }

type stubOrphans struct{}

func (stubOrphans) Enqueue(context.Context, string) error    { return nil }
func (stubOrphans) Pending(context.Context) ([]string, error) { return nil, nil }
func (stubOrphans) Remove(context.Context, string) error     { return nil }

type stubUsers struct {
	users     map[string]*domain.User
	lookupErr error
}

func (r *stubUsers) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type nopEvents struct{}

func (nopEvents) Publish(domain.RoomEvent) {}

const (
	testUserID     = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	testCategoryID = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

type testEnv struct {
	server *httptest.Server
	tokens *auth.TokenManager
	users  *stubUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", "roomstay", time.Hour)

	users := &stubUsers{users: map[string]*domain.User{
		testUserID: {ID: testUserID, Email: "guest@example.com", Username: "guest", IsActive: true},
	}}
	categories := &stubCategoryRepo{categories: map[string]*domain.Category{
		testCategoryID: {ID: testCategoryID, Name: "Deluxe", PriceCents: 18900},
	}}
	rooms := &stubRoomRepo{rooms: map[string]*domain.Room{}}
	store := &stubMedia{}

	roomSvc := service.NewRoomService(rooms, categories, store, stubOrphans{}, nopEvents{}, logger, 12)
	categorySvc := service.NewCategoryService(categories, logger)
	authSvc := service.NewAuthService(users, tokens, logger)

	const maxUpload = int64(8 << 20)
	mux := http.NewServeMux()
	mux.Handle("POST /api/rooms", NewCreateRoomHandler(roomSvc, store, logger, false, maxUpload))
	mux.Handle("GET /api/rooms", NewListRoomsHandler(roomSvc, store, logger, false))
	mux.Handle("GET /api/rooms/{id}", NewGetRoomHandler(roomSvc, store, logger, false))
	mux.Handle("PUT /api/rooms/{id}", NewUpdateRoomHandler(roomSvc, store, logger, false, maxUpload))
	mux.Handle("DELETE /api/rooms/{id}", NewDeleteRoomHandler(roomSvc, logger, false))
	mux.Handle("GET /api/categories", NewListCategoriesHandler(categorySvc, logger, false))
	mux.Handle("POST /api/categories", NewCreateCategoryHandler(categorySvc, logger, false))
	mux.Handle("POST /api/auth/register", NewRegisterHandler(authSvc, logger, false))
	mux.Handle("POST /api/auth/login", NewLoginHandler(authSvc, logger, false))

	server := httptest.NewServer(middleware.AuthGate(tokens, users, logger)(mux))
	t.Cleanup(server.Close)

	return &testEnv{server: server, tokens: tokens, users: users}
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.GenerateToken(testUserID, "guest@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRoomLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	resp := env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "204",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[RoomResponse](t, resp)
	if created.Status != domain.StatusAvailable {
		t.Errorf("status = %q, want available", created.Status)
	}
	if created.Category == nil || created.Category.Name != "Deluxe" {
		t.Errorf("category not enriched: %+v", created.Category)
	}

	resp = env.do(t, http.MethodGet, "/api/rooms/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	fetched := decodeBody[RoomResponse](t, resp)
	if fetched.RoomNumber != "204" {
		t.Errorf("roomNumber = %q", fetched.RoomNumber)
	}

	resp = env.do(t, http.MethodPut, "/api/rooms/"+created.ID, token, map[string]string{
		"status": domain.StatusOccupied,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[RoomResponse](t, resp)
	if updated.Status != domain.StatusOccupied || updated.Version != 2 {
		t.Errorf("after update: status=%q version=%d", updated.Status, updated.Version)
	}
	if updated.RoomNumber != "204" {
		t.Errorf("partial update changed roomNumber to %q", updated.RoomNumber)
	}

	resp = env.do(t, http.MethodDelete, "/api/rooms/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/rooms/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthGateReasons(t *testing.T) {
	env := newTestEnv(t)

	expired := func() string {
		claims := auth.Claims{
			UserID: testUserID,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				Issuer:    "roomstay",
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("signing expired token: %v", err)
		}
		return signed
	}()

	mustToken := func(userID string) string {
		token, err := env.tokens.GenerateToken(userID, "guest@example.com")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		return token
	}

	cases := []struct {
		name       string
		token      string
		wantReason string
	}{
		{"missing token", "", middleware.ReasonNoToken},
		{"expired token", expired, middleware.ReasonTokenExpired},
		{"garbage token", "not.a.jwt", middleware.ReasonInvalidToken},
		{"non uuid subject", mustToken("not-a-uuid"), middleware.ReasonInvalidUserID},
		{"unknown user", mustToken("cccccccc-cccc-4ccc-8ccc-cccccccccccc"), middleware.ReasonUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/rooms", tc.token, map[string]string{
				"category":   testCategoryID,
				"roomNumber": "301",
			})
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			body := decodeBody[ErrorResponse](t, resp)
			if body.Error != tc.wantReason {
				t.Errorf("reason = %q, want %q", body.Error, tc.wantReason)
			}
		})
	}
}

func TestAuthGateLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	env.users.lookupErr = errors.New("connection refused")

	resp := env.do(t, http.MethodPost, "/api/rooms", env.token(t), map[string]string{
		"category":   testCategoryID,
		"roomNumber": "301",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error != middleware.ReasonValidationError {
		t.Errorf("reason = %q, want %q", body.Error, middleware.ReasonValidationError)
	}
}

func TestReadsArePublicWritesAreNot(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/rooms", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unauthenticated list status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/categories", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unauthenticated categories status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/categories", "", map[string]any{
		"name": "Suite", "priceCents": 30000,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated category create status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateRoomConflictsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	resp := env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "101",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "101",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate number status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   "dddddddd-dddd-4ddd-8ddd-dddddddddddd",
		"roomNumber": "102",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown category status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "103",
		"status":     "haunted",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status code = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUpdateVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	resp := env.do(t, http.MethodPost, "/api/rooms", token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "104",
	})
	created := decodeBody[RoomResponse](t, resp)

	resp = env.do(t, http.MethodPut, "/api/rooms/"+created.ID, token, map[string]any{
		"status": domain.StatusOccupied,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first update status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/api/rooms/"+created.ID, token, map[string]any{
		"status":  domain.StatusMaintenance,
		"version": 1,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("stale update status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"email":    "dup@example.com",
		"username": "dupuser",
		"password": "sup3rsecret",
	}
	resp := env.do(t, http.MethodPost, "/api/auth/register", "", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/auth/register", "", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", resp.StatusCode)
	}
	errBody := decodeBody[ErrorResponse](t, resp)
	if errBody.Error != domain.ErrEmailTaken.Error() {
		t.Errorf("error = %q, want %q", errBody.Error, domain.ErrEmailTaken.Error())
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "new@example.com",
		"username": "newguest",
		"password": "sup3rsecret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	registered := decodeBody[authResponse](t, resp)
	if registered.Token == "" {
		t.Fatal("no token in register response")
	}

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "sup3rsecret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	loggedIn := decodeBody[authResponse](t, resp)

	// The issued token must pass the gate on a protected route.
	resp = env.do(t, http.MethodPost, "/api/rooms", loggedIn.Token, map[string]string{
		"category":   testCategoryID,
		"roomNumber": "501",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("create with fresh login token status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
