// Package authapi exposes the operator credential API over HTTP.
package authapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/bowerhall/autopost/internal/auth"
	"github.com/bowerhall/autopost/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// Handler handles operator auth requests.
type Handler struct {
	auth *auth.Service
}

// NewHandler creates a new handler backed by the auth service.
func NewHandler(svc *auth.Service) *Handler {
	return &Handler{auth: svc}
}

// NewServer builds an echo server with all routes registered.
func NewServer(svc *auth.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	h := NewHandler(svc)
	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/setup-admin", h.SetupAdmin)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.GET("/healthz", h.Health)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type setupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	SetupKey string `json:"setup_key"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SetupAdmin creates the sole operator credential.
// POST /auth/setup-admin
func (h *Handler) SetupAdmin(c echo.Context) error {
	var req setupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
	}

	user, err := h.auth.CreateAdmin(c.Request().Context(), req.Username, req.Password, req.SetupKey)
	switch {
	case errors.Is(err, auth.ErrAdminExists):
		return c.JSON(http.StatusConflict, map[string]string{"error": "operator already exists"})
	case errors.Is(err, auth.ErrInvalidSetupKey), errors.Is(err, auth.ErrSetupDisabled):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "setup not permitted"})
	case err != nil:
		logger.Error("failed to create operator", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create operator"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Login verifies credentials and issues a token pair.
// POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	pair, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		logger.Error("login failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates a token pair from a valid refresh token.
// POST /auth/refresh
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
	}

	return c.JSON(http.StatusOK, pair)
}

// Health returns process health.
// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	resp := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		resp["memory_used_percent"] = memInfo.UsedPercent
	}
	return c.JSON(http.StatusOK, resp)
}
