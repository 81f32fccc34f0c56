package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/chatlog/internal/data"
	"github.com/PaulBabatuyi/chatlog/internal/gateway"
	"github.com/PaulBabatuyi/chatlog/internal/middleware"
)

// register creates an account. It does not log the user in.
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.auth.Register(ctx, req.Email, req.Password); err != nil {
		if errors.Is(err, data.ErrDuplicateUser) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		middleware.Logger(c, s.log).Error(ctx, "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful"})
}

// login verifies credentials, opens a ledger entry and issues a new session
// cookie. A session the request arrived with is revoked only once the
// credentials check out.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validationMessage(err)})
		return
	}

	ctx := c.Request.Context()
	log := middleware.Logger(c, s.log)

	sid, err := s.sessions.NewID()
	if err != nil {
		log.Error(ctx, "session id generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	user, err := s.auth.Login(ctx, req.Email, req.Password, sid)
	if err != nil {
		if errors.Is(err, data.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}
		log.Error(ctx, "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	if old, ok := getIdentity(c); ok {
		if err := s.sessions.Revoke(ctx, old.SessionID); err != nil {
			log.Warn(ctx, "revoke previous session failed", "error", err)
		}
	}

	if _, err := s.sessions.Start(ctx, c.Writer, sid, user.ID.Hex()); err != nil {
		log.Error(ctx, "session start failed", "user_id", user.ID.Hex(), "error", err)
		// sid never got a transport session; close its ledger entry
		if err := s.auth.Logout(ctx, gateway.Identity{UserID: user.ID, SessionID: sid}); err != nil {
			log.Warn(ctx, "ledger close failed", "user_id", user.ID.Hex(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	log.Info(ctx, "user logged in", "user_id", user.ID.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// logout closes the ledger entry, destroys the session and redirects to /login.
// It succeeds for anonymous requests too.
func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()
	log := middleware.Logger(c, s.log)

	id, ok := getIdentity(c)
	if ok {
		// best-effort: the sweep on next login closes anything left open
		if err := s.auth.Logout(ctx, id); err != nil {
			log.Warn(ctx, "ledger close failed", "user_id", id.UserID.Hex(), "error", err)
		}
	}

	if err := s.sessions.Destroy(ctx, c.Writer, id.SessionID); err != nil {
		log.Error(ctx, "session destroy failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Logout failed"})
		return
	}

	c.Header("Cache-Control", "no-store, must-revalidate")
	c.Redirect(http.StatusFound, "/login")
}

// me returns the caller's email.
func (s *Server) me(c *gin.Context) {
	id, _ := getIdentity(c)
	ctx := c.Request.Context()

	user, err := s.auth.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		middleware.Logger(c, s.log).Error(ctx, "me lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get user data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email})
}

// profile returns the caller's user document without the password hash.
func (s *Server) profile(c *gin.Context) {
	id, _ := getIdentity(c)
	ctx := c.Request.Context()

	user, err := s.auth.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		middleware.Logger(c, s.log).Error(ctx, "profile lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
