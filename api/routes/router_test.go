package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/sitestock-backend/internal/auth"
	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/users"
	pkgAuth "github.com/angelmondragon/sitestock-backend/pkg/auth"
	"github.com/angelmondragon/sitestock-backend/pkg/auth/session"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/sitestock-backend/pkg/redis"
)

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type fakeRedis struct {
	values  map[string]string
	allowed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, allowed: true}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	return true, nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeRedis) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.allowed {
		return true, 1, nil
	}
	return false, limit + 1, nil
}

func (f *fakeRedis) Ping(ctx context.Context) error {
	return nil
}

type stubAuthService struct {
	auth.Service
}

func (stubAuthService) ListUsers(ctx context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{}, nil
}

type stubDeliveries struct {
	deliveries.Service
	creates int
}

func (s *stubDeliveries) Create(ctx context.Context, input deliveries.CreateInput) (*deliveries.DeliveryDTO, error) {
	s.creates++
	return &deliveries.DeliveryDTO{ID: uuid.New(), BuildingSiteID: input.BuildingSiteID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "sitestock", ExpirationMinutes: 60},
		Session: config.SessionConfig{CookieName: "__session"},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 5,
			LoginIPLimit:    20,
			JoinWindow:      time.Minute,
			JoinEmailLimit:  3,
			JoinIPLimit:     20,
		},
	}
}

func newTestRouter(cfg *config.Config, store RedisStore, delivery deliveries.Service, reg *prometheus.Registry) http.Handler {
	p := Params{
		Config:     cfg,
		Redis:      store,
		Sessions:   stubSessions{},
		Auth:       stubAuthService{},
		Deliveries: delivery,
	}
	if reg != nil {
		p.HTTPMetrics = metrics.NewHTTPMetrics(reg)
		p.Gatherer = reg
	}
	return NewRouter(p)
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), newFakeRedis(), nil, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), newFakeRedis(), nil, nil)

	for _, path := range []string{"/api/v1/clients", "/api/v1/rentables", "/api/v1/auth/me"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, newFakeRedis(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDeliveryCreateRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	svc := &stubDeliveries{}
	router := newTestRouter(cfg, newFakeRedis(), svc, nil)

	body := `{"building_site_id":"` + uuid.NewString() + `","units":[{"rentable_id":"` + uuid.NewString() + `","count":2,"delivery_type":"delivery"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliveries", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleUser))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.creates != 0 {
		t.Fatalf("expected no delivery created, got %d", svc.creates)
	}
}

func TestDeliveryCreateReplaysWithSameKey(t *testing.T) {
	cfg := testConfig()
	svc := &stubDeliveries{}
	router := newTestRouter(cfg, newFakeRedis(), svc, nil)
	token := bearer(t, cfg, enums.UserRoleUser)

	body := `{"building_site_id":"` + uuid.NewString() + `","units":[{"rentable_id":"` + uuid.NewString() + `","count":2,"delivery_type":"delivery"}]}`
	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/deliveries", strings.NewReader(body))
		req.Header.Set("Authorization", token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "delivery-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d: %s", i, resp.Code, resp.Body.String())
		}
		if i == 0 {
			first = resp.Body.String()
			continue
		}
		if resp.Header().Get("Idempotent-Replayed") != "true" {
			t.Fatalf("expected replay header on second attempt")
		}
		if resp.Body.String() != first {
			t.Fatalf("replayed body differs")
		}
	}
	if svc.creates != 1 {
		t.Fatalf("expected a single delivery, got %d", svc.creates)
	}
}

func TestLoginRateLimited(t *testing.T) {
	store := newFakeRedis()
	store.allowed = false
	router := newTestRouter(testConfig(), store, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"rachel@remix.run","password":"racheliscool"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestMetricsExposeRoutePatterns(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := testConfig()
	router := newTestRouter(cfg, newFakeRedis(), nil, reg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `route="/api/v1/admin/users",status="200"`) {
		t.Fatalf("expected templated route label, got:\n%s", body)
	}
}
