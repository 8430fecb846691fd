package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/internal/pairbook/state"
)

func (s *Server) listReports(c *gin.Context) {
	respondOK(c, s.state.Reports())
}

func (s *Server) addReport(c *gin.Context) {
	var in state.ReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	r, err := s.state.AddReport(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondCreated(c, r)
}

// listBubbles returns the transient speech bubbles keyed by todo id. The map
// is a point-in-time copy; bubbles are never persisted.
func (s *Server) listBubbles(c *gin.Context) {
	respondOK(c, s.state.Bubbles())
}
