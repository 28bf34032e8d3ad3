// Auth HTTP handlers.
//
// This file exposes POST /auth/login, which exchanges the configured admin
// credentials for a short-lived HS256 bearer token. There is exactly one
// admin principal; credential comparison is constant-time.
package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig carries the credentials and signing material for the admin
// login endpoint.
type AuthConfig struct {
	Username string
	Password string
	Secret   []byte
	TokenTTL time.Duration
	// Now supplies the token clock; tests pin it.
	Now func() time.Time
}

// LoginRequest is the JSON payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed bearer token and its expiry.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login validates the admin credentials and issues a signed JWT.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.auth.Password)) == 1
	if !userOK || !passOK {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	now := time.Now
	if h.auth.Now != nil {
		now = h.auth.Now
	}
	expires := now().Add(h.auth.TokenTTL)

	claims := jwt.MapClaims{
		"sub": h.auth.Username,
		"iat": now().Unix(),
		"exp": expires.Unix(),
		"iss": "civicbot-admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.auth.Secret)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "token signing failed")
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: signed, ExpiresAt: expires})
}
