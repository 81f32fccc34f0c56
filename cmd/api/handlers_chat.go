package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/chatlog/internal/data"
	"github.com/PaulBabatuyi/chatlog/internal/gateway"
	"github.com/PaulBabatuyi/chatlog/internal/middleware"
)

// postMessage appends a message to the caller's bucket for today.
func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	id, _ := getIdentity(c)
	ctx := c.Request.Context()
	if _, err := s.chat.PostMessage(ctx, id, data.Role(req.Role), req.Content); err != nil {
		if errors.Is(err, gateway.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message"})
			return
		}
		middleware.Logger(c, s.log).Error(ctx, "append message failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// history returns the caller's buckets grouped by date, newest first.
func (s *Server) history(c *gin.Context) {
	id, _ := getIdentity(c)
	ctx := c.Request.Context()

	groups, err := s.chat.History(ctx, id)
	if err != nil {
		middleware.Logger(c, s.log).Error(ctx, "history failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, groups)
}

// deleteBucket removes one of the caller's buckets.
func (s *Server) deleteBucket(c *gin.Context) {
	id, _ := getIdentity(c)
	ctx := c.Request.Context()

	if err := s.chat.DeleteBucket(ctx, id, c.Param("sessionId")); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
			return
		}
		middleware.Logger(c, s.log).Error(ctx, "delete bucket failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete chat session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// searchQuery proxies the search service and records the exchange in today's
// bucket. Recording failures are logged; the caller still gets the answer.
func (s *Server) searchQuery(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "query is required"})
		return
	}

	id, _ := getIdentity(c)
	ctx := c.Request.Context()
	log := middleware.Logger(c, s.log)

	if _, err := s.chat.PostMessage(ctx, id, data.RoleUser, query); err != nil {
		log.Error(ctx, "record search query failed", "error", err)
	}

	res, err := s.search.Search(ctx, query)
	if err != nil {
		log.Error(ctx, "search failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Search service unavailable"})
		return
	}

	if res.LLMResponse != "" {
		if _, err := s.chat.PostMessage(ctx, id, data.RoleAssistant, res.LLMResponse); err != nil {
			log.Error(ctx, "record search answer failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, res)
}

// healthz pings every backend; 503 when any fails.
func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.ping(ctx); err != nil {
		middleware.Logger(c, s.log).Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ping(ctx context.Context) error {
	for _, p := range s.pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
