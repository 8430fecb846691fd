package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getFortune returns today's fortune if one has been drawn; 404 otherwise.
func (s *Server) getFortune(c *gin.Context) {
	f := s.state.Fortune()
	if f == nil {
		respondError(c, http.StatusNotFound, "no fortune drawn yet")
		return
	}
	respondOK(c, f)
}

// drawFortune draws (or redraws) today's fortune. Drawing again on the same
// day overwrites the previous result.
func (s *Server) drawFortune(c *gin.Context) {
	f, err := s.state.DrawFortune(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, f)
}

type fortuneCharRequest struct {
	CharID string `json:"char_id" binding:"required"`
}

// setFortuneChar assigns the character persona that narrates fortune draws.
func (s *Server) setFortuneChar(c *gin.Context) {
	var req fortuneCharRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: char_id required")
		return
	}
	if err := s.state.SetFortuneChar(c.Request.Context(), req.CharID); err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, gin.H{"char_id": req.CharID})
}
