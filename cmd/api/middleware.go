package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/chatlog/internal/gateway"
	"github.com/PaulBabatuyi/chatlog/internal/middleware"
	"github.com/PaulBabatuyi/chatlog/internal/session"
)

// gin context key holding the caller's gateway.Identity
const identityKey = "chatlog.identity"

// getIdentity extracts the identity loadSession attached, if present.
func getIdentity(c *gin.Context) (gateway.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return gateway.Identity{}, false
	}
	id, ok := v.(gateway.Identity)
	return id, ok && id.Valid()
}

// loadSession resolves the cookie to a server-side session and attaches the
// identity. Requests without a usable session continue anonymously.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := s.sessions.Load(ctx, c.Request)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				middleware.Logger(c, s.log).Error(ctx, "session lookup failed", "error", err)
			}
			c.Next()
			return
		}

		userID, err := gateway.ParseUserID(sess.UserID)
		if err != nil {
			c.Next()
			return
		}
		c.Set(identityKey, gateway.Identity{UserID: userID, SessionID: sess.ID})
		c.Next()
	}
}

// trackSession makes sure the ledger has an active entry for the current
// session. Failures are logged and never fail the request.
func (s *Server) trackSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := getIdentity(c)
		if !ok {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		log := middleware.Logger(c, s.log)
		appended, err := s.auth.EnsureActiveSession(ctx, id)
		if err != nil {
			log.Error(ctx, "session tracking failed", "user_id", id.UserID.Hex(), "error", err)
		} else if appended {
			log.Debug(ctx, "ledger entry reopened", "user_id", id.UserID.Hex())
		}
		c.Next()
	}
}

// requireAuth rejects anonymous requests with 401.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := getIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}
