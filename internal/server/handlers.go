// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "market-mentor/internal/common/errors"

	"github.com/gin-gonic/gin"
)

const invalidQuestionText = "Please provide a valid question."

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Name":     s.config.AssistantName,
		"Retailer": s.config.Retailer,
	})
}

// handleAsk always answers 200; problems are reported in the response text.
func (s *Server) handleAsk(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.logger.Warn("failed to read ask body", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusOK, AskResponse{Response: invalidQuestionText})
		return
	}

	if result := s.askSchema.ValidateBytes(body); !result.Valid {
		fields := apperrors.NewInvalidQuestionError(result.Error()).ToLogFields()
		fields["requestId"] = c.GetString("requestId")
		s.logger.Info("rejected invalid ask request", fields)
		c.JSON(http.StatusOK, AskResponse{Response: invalidQuestionText})
		return
	}

	// The schema pattern cannot see every Unicode space, so trim again here.
	var req AskRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Question) == "" {
		fields := apperrors.NewInvalidQuestionError("question is blank").ToLogFields()
		fields["requestId"] = c.GetString("requestId")
		s.logger.Info("rejected invalid ask request", fields)
		c.JSON(http.StatusOK, AskResponse{Response: invalidQuestionText})
		return
	}

	result := s.asker.Process(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, AskResponse{Response: result.Text})
}

func (s *Server) legalHandler(doc LegalDocument) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, err := s.legal.Read(doc)
		if err != nil {
			s.logger.Error("error loading "+doc.LogSubject, map[string]interface{}{"error": err.Error()})
			c.String(http.StatusInternalServerError, doc.ErrorText)
			return
		}
		c.HTML(http.StatusOK, "legal.html", gin.H{
			"Title":   doc.Title,
			"Content": content,
		})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.readiness.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
