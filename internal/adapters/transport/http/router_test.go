package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redisstore "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/db/redis"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/authz"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/hasher"
	appjwt "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/jwt"
	appsvc "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/metrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	router *gin.Engine
	codec  *appjwt.JwtUtilImpl
	store  *redisstore.RedisSessionStore
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		TokenSecret:       "router-secret",
		AccessTokenTTL:    10 * time.Minute,
		RefreshTokenTTL:   240 * time.Hour,
		PasswordHasher:    config.HasherBcrypt,
		HashCost:          4,
		RefreshCookiePath: "/api/refresh",
		RequestTimeout:    5 * time.Second,
		LoginRateLimit:    100,
		LoginRateBurst:    100,
	}
	for _, m := range mutate {
		m(cfg)
	}

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.NewRedisSessionStore(client)

	codec, err := appjwt.NewJWTUtil(cfg)
	require.NoError(t, err)

	svc := appsvc.New(store, hasher.New(cfg), codec, cfg, dto.NewValidator(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(ctx, Deps{
		Service: svc,
		Gate:    authz.NewGate(codec),
		Store:   store,
		Config:  cfg,
		Metrics: metrics.New(),
		Log:     zap.NewNop(),
	})
	return &testServer{router: router, codec: codec, store: store, mr: mr}
}

func (s *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type envelopeBody struct {
	Status string `json:"status"`
	Data   struct {
		User model.AccountSummary `json:"user"`
	} `json:"data"`
	Errors struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var out envelopeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func register(s *testServer, email string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/register", map[string]string{
		"fullname":             "testing",
		"email":                email,
		"password":             "pw1",
		"passwordConfirmation": "pw1",
	})
}

func TestRouter_RegisterSetsCookies(t *testing.T) {
	s := newTestServer(t)

	w := register(s, "a@b.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	require.Equal(t, "success", body.Status)
	require.Equal(t, "a@b.com", body.Data.User.Email)
	require.Equal(t, model.RoleUser, body.Data.User.Role)

	access := cookieByName(w, "accessToken")
	require.NotNil(t, access)
	require.True(t, access.Secure)
	require.True(t, access.HttpOnly)
	require.Equal(t, http.SameSiteNoneMode, access.SameSite)
	require.Equal(t, 600, access.MaxAge)

	refresh := cookieByName(w, "refreshToken")
	require.NotNil(t, refresh)
	require.Equal(t, "/api/refresh", refresh.Path)
	require.Equal(t, 864000, refresh.MaxAge)
}

func TestRouter_RegisterErrors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, register(s, "dup@b.com").Code)

	w := register(s, "dup@b.com")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "this email already exists", decode(t, w).Errors.Message)

	w = s.do(http.MethodPost, "/api/register", map[string]string{"email": "bad"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.Equal(t, "fail", body.Status)
	require.Equal(t, 400, body.Errors.Code)
	require.Equal(t, "validation errors", body.Errors.Message)
	require.Equal(t, "your email is in invalid format", body.Errors.Details["email"])

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, register(s, "flow@b.com").Code)

	w := s.do(http.MethodPost, "/api/login", map[string]string{"email": "flow@b.com", "password": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "email or password is incorrect", decode(t, w).Errors.Message)

	w = s.do(http.MethodPost, "/api/login", map[string]string{"email": "flow@b.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := cookieByName(w, "accessToken")
	refresh := cookieByName(w, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	w = s.do(http.MethodGet, "/api/refresh", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid request, refresh token unavailable", decode(t, w).Errors.Message)

	w = s.do(http.MethodGet, "/api/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, cookieByName(w, "accessToken"))
	require.Equal(t, refresh.Value, cookieByName(w, "refreshToken").Value)
	require.Equal(t, "flow@b.com", decode(t, w).Data.User.Email)

	w = s.do(http.MethodGet, "/api/users/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "flow@b.com", decode(t, w).Data.User.Email)

	w = s.do(http.MethodPost, "/api/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := cookieByName(w, "refreshToken")
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.True(t, cleared.MaxAge < 0)

	w = s.do(http.MethodGet, "/api/refresh", nil, refresh)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid refresh token", decode(t, w).Errors.Message)
}

func TestRouter_RefreshCookieNotOutlivingToken(t *testing.T) {
	s := newTestServer(t)
	w := register(s, "short@b.com")
	require.Equal(t, http.StatusCreated, w.Code)
	user := decode(t, w).Data.User

	short, _, err := s.codec.Issue(user.Identity(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.store.SaveRefreshToken(context.Background(), user.ID, short))

	w = s.do(http.MethodGet, "/api/refresh", nil, &http.Cookie{Name: "refreshToken", Value: short})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refresh := cookieByName(w, "refreshToken")
	require.NotNil(t, refresh)
	require.Equal(t, short, refresh.Value)
	require.LessOrEqual(t, refresh.MaxAge, 60)
	require.Greater(t, refresh.MaxAge, 50)
}

func TestRouter_RequiresLogin(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/users", "/api/users/me"} {
		w := s.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "you must be logged in to access this resource", decode(t, w).Errors.Message)
	}
	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/logout", nil).Code)
}

func TestRouter_AdminLookup(t *testing.T) {
	s := newTestServer(t)
	w := register(s, "target@b.com")
	require.Equal(t, http.StatusCreated, w.Code)
	target := decode(t, w).Data.User
	userCookie := cookieByName(w, "accessToken")

	w = s.do(http.MethodGet, "/api/users/"+target.ID.String(), nil, userCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "this action is only for user with admin access", decode(t, w).Errors.Message)

	adminToken, _, err := s.codec.Issue(model.Identity{
		AccountID: uuid.New(), Email: "admin@b.com", Role: model.RoleAdmin,
	}, time.Minute)
	require.NoError(t, err)
	admin := &http.Cookie{Name: "accessToken", Value: adminToken}

	w = s.do(http.MethodGet, "/api/users/"+target.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, target, decode(t, w).Data.User)

	w = s.do(http.MethodGet, "/api/users/"+uuid.NewString(), nil, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "account not found", decode(t, w).Errors.Message)

	w = s.do(http.MethodGet, "/api/users/not-a-uuid", nil, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.LoginRateLimit = 1
		c.LoginRateBurst = 2
	})

	creds := map[string]string{"email": "rl@b.com", "password": "x"}
	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/login", creds).Code)
	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/login", creds).Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/login", creds).Code)
}

func loginVia(s *testServer, remoteAddr, forwardedFor string) int {
	body := bytes.NewBufferString(`{"email":"xff@b.com","password":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/login", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_LoginRateLimitIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.LoginRateLimit = 1
		c.LoginRateBurst = 1
	})

	require.Equal(t, http.StatusBadRequest, loginVia(s, "203.0.113.7:4444", "198.51.100.1"))
	for i := 2; i <= 20; i++ {
		code := loginVia(s, "203.0.113.7:4444", fmt.Sprintf("198.51.100.%d", i))
		require.Equal(t, http.StatusTooManyRequests, code, "request %d", i)
	}
}

func TestRouter_LoginRateLimitBehindTrustedProxy(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.LoginRateLimit = 1
		c.LoginRateBurst = 1
		c.TrustedProxies = []string{"10.0.0.0/8"}
	})

	require.Equal(t, http.StatusBadRequest, loginVia(s, "10.1.2.3:80", "198.51.100.1"))
	require.Equal(t, http.StatusBadRequest, loginVia(s, "10.1.2.3:80", "198.51.100.2"))
	require.Equal(t, http.StatusTooManyRequests, loginVia(s, "10.1.2.3:80", "198.51.100.1"))
}

func TestCorsConfig(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	c := corsConfig(&config.Config{AllowCredentials: true}, log)
	require.True(t, c.AllowAllOrigins)
	require.False(t, c.AllowCredentials)
	require.Equal(t, 1, logs.FilterMessageSnippet("ALLOWED_ORIGINS is empty").Len())

	c = corsConfig(&config.Config{AllowedOrigins: []string{"https://shop.example"}, AllowCredentials: true}, log)
	require.False(t, c.AllowAllOrigins)
	require.True(t, c.AllowCredentials)
	require.Equal(t, []string{"https://shop.example"}, c.AllowOrigins)

	_ = corsConfig(&config.Config{}, log)
	require.Equal(t, 1, logs.Len())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil).Code)

	register(s, "m@b.com")
	w := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `auth_operations_total{operation="register",outcome="success"} 1`)
	require.Contains(t, w.Body.String(), `auth_http_requests_total{method="POST",route="/api/register",status="201"} 1`)

	s.mr.Close()
	w = s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t,
		"this is not your fault, something went wrong in our system, please try again later",
		decode(t, w).Errors.Message)
}

func TestRouter_StoreDownOnLogin(t *testing.T) {
	s := newTestServer(t)
	s.mr.Close()

	w := s.do(http.MethodPost, "/api/login", map[string]string{"email": "a@b.com", "password": "pw"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "fail", decode(t, w).Status)
}
