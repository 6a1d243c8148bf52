package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/response"
	appsvc "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/service"
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	lg "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgBadBody            = "invalid request body"
	msgBadAccountID       = "invalid account id"
	msgRefreshUnavailable = "invalid request, refresh token unavailable"
)

// Pinger проверяет доступность хранилища для /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc     appsvc.Service
	store   Pinger
	cookies cookieJar
	metrics *metrics.Metrics
	log     *zap.Logger
}

type userData struct {
	User model.AccountSummary `json:"user"`
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, http.StatusBadRequest, msgBadBody, nil)
		return
	}
	h.log.Info("/register", lg.Email(body.Email))

	s, err := h.svc.Register(c.Request.Context(), body)
	h.metrics.ObserveAuth("register", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.setAccess(c, s.Tokens.AccessToken, s.Tokens.AccessTTL)
	h.cookies.setRefresh(c, s.Tokens.RefreshToken, s.Tokens.RefreshTTL)
	response.Success(c, http.StatusCreated, userData{User: s.Account})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, http.StatusBadRequest, msgBadBody, nil)
		return
	}
	h.log.Info("/login", lg.Email(body.Email))

	s, err := h.svc.Login(c.Request.Context(), body)
	h.metrics.ObserveAuth("login", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.setAccess(c, s.Tokens.AccessToken, s.Tokens.AccessTTL)
	h.cookies.setRefresh(c, s.Tokens.RefreshToken, s.Tokens.RefreshTTL)
	response.Success(c, http.StatusOK, userData{User: s.Account})
}

func (h *Handler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(refreshTokenCookie)
	if err != nil || raw == "" {
		response.Fail(c, http.StatusBadRequest, msgRefreshUnavailable, nil)
		return
	}

	out, err := h.svc.RefreshAccessToken(c.Request.Context(), dto.RefreshDTO{RefreshToken: raw})
	h.metrics.ObserveAuth("refresh", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	// refresh не ротируется: кука живёт не дольше самого токена
	h.cookies.setAccess(c, out.AccessToken, out.AccessTTL)
	h.cookies.setRefresh(c, raw, time.Until(out.RefreshExpiresAt))
	response.Success(c, http.StatusOK, userData{User: out.Account})
}

func (h *Handler) Logout(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, customErrors.ErrUnauthenticated)
		return
	}

	err := h.svc.Logout(c.Request.Context(), identity.AccountID)
	h.metrics.ObserveAuth("logout", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookies.clear(c)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me отвечает данными из access-токена без похода в хранилище.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		response.Error(c, customErrors.ErrUnauthenticated)
		return
	}
	response.Success(c, http.StatusOK, userData{User: identity.Summary()})
}

func (h *Handler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, msgBadAccountID, nil)
		return
	}

	account, err := h.svc.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, userData{User: account})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}
