package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/internal/pairbook/state"
)

func (s *Server) listCharacters(c *gin.Context) {
	respondOK(c, s.state.Characters())
}

func (s *Server) createCharacter(c *gin.Context) {
	var in state.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	char, err := s.state.CreateCharacter(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondCreated(c, char)
}

func (s *Server) updateCharacter(c *gin.Context) {
	var in state.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	char, err := s.state.UpdateCharacter(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, char)
}

// deleteCharacter removes a character outright. Destructive-action
// confirmation lives in the client; the API itself has no undo.
func (s *Server) deleteCharacter(c *gin.Context) {
	if err := s.state.DeleteCharacter(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

type analyzeRequest struct {
	Name            string `json:"name" binding:"required"`
	Personality     string `json:"personality"`
	DetailedSetting string `json:"detailed_setting"`
}

// analyzeCharacter returns a speech-pattern sketch for a (possibly unsaved)
// profile. Generation failures degrade to the fallback text, never an error.
func (s *Server) analyzeCharacter(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: name required")
		return
	}
	analysis := s.gen.AnalyzeProfile(c.Request.Context(), req.Name, req.Personality, req.DetailedSetting)
	respondOK(c, gin.H{"analysis": analysis})
}
