package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles login/logout for both client classes: the on-board app
// (ship role) and the shore-side console (admin role).
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	audit *audit.Service
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler. auditSvc may be nil.
func NewAuthHandler(db *gorm.DB, c cache.Cache, auditSvc *audit.Service, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, audit: auditSvc, sec: sec}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var user model.User
	err := h.db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials")
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid credentials")
		return
	}
	if user.Status == 0 {
		fail(c, http.StatusForbidden, CodeForbidden, "account disabled")
		return
	}

	token, err := mw.GenerateToken(user.ID, user.Username, user.Role, user.ShipID, h.sec.JWTSecret, h.sec.TokenTTL)
	if err != nil {
		internalError(c, err)
		return
	}

	// Store the session so logout and expiry revoke the token server-side.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Set(ctx, "session:"+token, strconv.FormatInt(user.ID, 10), h.sec.TokenTTL)

	// Update last login (best-effort).
	now := time.Now()
	ip := c.ClientIP()
	_ = h.db.Model(&user).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": ip,
	})

	if h.audit != nil {
		h.audit.Log(audit.Entry{
			TraceID:   mw.GetTraceID(c),
			EventType: model.EventLogin,
			Operator:  user.Username,
			Object:    "user:" + strconv.FormatInt(user.ID, 10),
			Note:      ip,
		})
	}

	ok(c, gin.H{"token": token, "user": user})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr := c.GetHeader(mw.TokenHeader)
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+tokenStr)
	ok(c, nil)
}

// Whoami handles GET /whoami.
func (h *AuthHandler) Whoami(c *gin.Context) {
	var user model.User
	if err := h.db.First(&user, mw.GetUserID(c)).Error; err != nil {
		fail(c, http.StatusNotFound, CodeNotFound, "user not found")
		return
	}
	ok(c, user)
}
