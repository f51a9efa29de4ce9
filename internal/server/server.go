// Package server exposes the control plane over HTTP: terminal-facing
// endpoints for registration, heartbeat, and PIN unlock, and operator
// endpoints for login, the terminal overview, and lease management.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sessiondomain "cafe-control-plane/internal/session/domain"
	"cafe-control-plane/internal/snapshot"
)

// RegistryService resolves terminal names and records liveness.
type RegistryService interface {
	GetOrRegister(ctx context.Context, name string) (int64, error)
	Heartbeat(ctx context.Context, id int64, at time.Time) error
}

// LeaseService drives the session lifecycle.
type LeaseService interface {
	CreateLease(ctx context.Context, terminalID int64, pinCode string, minutes int, createdBy string) (*sessiondomain.Session, error)
	ResolvePin(ctx context.Context, pinCode string, terminalID int64, now time.Time) (*sessiondomain.Session, error)
	EndLease(ctx context.Context, terminalID int64, now time.Time) (*sessiondomain.Session, error)
}

// SnapshotService builds the console overview.
type SnapshotService interface {
	List(ctx context.Context, now time.Time) ([]snapshot.TerminalView, error)
}

// AdminService authenticates operators and console tokens.
type AdminService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	VerifyAny(ctx context.Context, password string) (bool, error)
	ValidateToken(token string) (string, error)
}

// Pinger reports backing-store health for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server wires services into the HTTP routes.
type Server struct {
	registry RegistryService
	leases   LeaseService
	views    SnapshotService
	admins   AdminService
	health   Pinger
	log      *zap.Logger
}

func New(registry RegistryService, leases LeaseService, views SnapshotService, admins AdminService, health Pinger, log *zap.Logger) *Server {
	return &Server{
		registry: registry,
		leases:   leases,
		views:    views,
		admins:   admins,
		health:   health,
		log:      log,
	}
}

// Handler builds the gin engine with all routes and middleware attached.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.log), cors.Default())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/api/v1")

	// Terminal-facing routes authenticate by PIN or password, not token.
	v1.POST("/terminals/register", s.handleRegister)
	v1.POST("/terminals/:id/heartbeat", s.handleHeartbeat)
	v1.POST("/terminals/:id/unlock", s.handleUnlock)
	v1.POST("/admin/login", s.handleLogin)
	v1.POST("/admin/verify", s.handleVerify)

	authed := v1.Group("", Auth(s.admins))
	authed.GET("/terminals", s.handleListTerminals)
	authed.POST("/sessions", s.handleCreateLease)
	authed.DELETE("/sessions/terminal/:id", s.handleEndLease)

	return r
}

type sessionResponse struct {
	ID         int64  `json:"id"`
	TerminalID int64  `json:"terminal_id"`
	Pin        string `json:"pin,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func toSessionResponse(sess *sessiondomain.Session, includePin bool) sessionResponse {
	resp := sessionResponse{
		ID:         sess.ID,
		TerminalID: sess.TerminalID,
		StartTime:  sess.StartTime.UTC().Format(time.RFC3339),
		EndTime:    sess.EndTime.UTC().Format(time.RFC3339),
	}
	if includePin {
		resp.Pin = sess.PinCode
	}
	return resp
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.PingContext(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.registry.GetOrRegister(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminal_id": id})
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.registry.Heartbeat(c.Request.Context(), id, time.Now().UTC()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUnlock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Pin string `json:"pin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.leases.ResolvePin(c.Request.Context(), req.Pin, id, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess, false))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, expiry, err := s.admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiry.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := s.admins.VerifyAny(c.Request.Context(), req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": ok})
}

func (s *Server) handleListTerminals(c *gin.Context) {
	views, err := s.views.List(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminals": views})
}

func (s *Server) handleCreateLease(c *gin.Context) {
	var req struct {
		TerminalID int64  `json:"terminal_id"`
		Pin        string `json:"pin"`
		Minutes    int    `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.leases.CreateLease(c.Request.Context(), req.TerminalID, req.Pin, req.Minutes, CurrentUsername(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	// The operator needs the PIN to hand to the customer.
	c.JSON(http.StatusCreated, toSessionResponse(sess, true))
}

func (s *Server) handleEndLease(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, err := s.leases.EndLease(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess, false))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid terminal id")
		return 0, false
	}
	return id, true
}
