package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dosetrack/dosetrack/internal/event"
)

// codePayload is the body of /login and /generate-token.
type codePayload struct {
	Code string `json:"code"`
}

// pushPayload is the POST /events body.
type pushPayload struct {
	Event event.Event `json:"event"`
}

func (s *Server) handleGenerateCode(c *gin.Context) {
	code, err := s.newCode()
	if err != nil {
		s.log.Error().Err(err).Msg("code generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code generation failed"})
		return
	}

	if err := s.store.CreateCode(c.Request.Context(), code, s.now()); err != nil {
		s.log.Error().Err(err).Msg("code persistence failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (s *Server) handleLogin(c *gin.Context) {
	var payload codePayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}

	ok, err := s.store.TouchLogin(c.Request.Context(), payload.Code, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGenerateToken issues the bearer token for a code, or returns the one
// already issued: a second device enrolling with the same code must get the
// same token.
func (s *Server) handleGenerateToken(c *gin.Context) {
	var payload codePayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}

	ctx := c.Request.Context()

	exists, err := s.store.CodeExists(ctx, payload.Code)
	if err != nil {
		s.log.Error().Err(err).Msg("code lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		return
	}

	if token, has, err := s.store.TokenForCode(ctx, payload.Code); err != nil {
		s.log.Error().Err(err).Msg("token lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	} else if has {
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}

	token, err := s.newToken()
	if err != nil {
		s.log.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	if err := s.store.StoreToken(ctx, payload.Code, token, s.now()); err != nil {
		s.log.Error().Err(err).Msg("token persistence failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleGetCode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": accountCode(c)})
}

func (s *Server) handlePushEvent(c *gin.Context) {
	var payload pushPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'event' (object) is required"})
		return
	}

	ev := payload.Event
	if ev.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event id is required"})
		return
	}
	if err := event.Validate(ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inserted, err := s.store.InsertEvent(c.Request.Context(), accountCode(c), ev, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("event_id", ev.ID).Msg("event insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved", "duplicate": !inserted})
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.store.ListEvents(c.Request.Context(), accountCode(c))
	if err != nil {
		s.log.Error().Err(err).Msg("event list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
}
