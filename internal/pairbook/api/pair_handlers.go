package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/internal/pairbook/dates"
	"github.com/soyj/pairbook/internal/pairbook/model"
	"github.com/soyj/pairbook/internal/pairbook/state"
)

// pairView is a pair enriched with its current D-Day count. The count is
// derived on read rather than stored, so it can never go stale.
type pairView struct {
	model.Pair
	DDay int `json:"d_day"`
}

func (s *Server) pairView(p model.Pair) pairView {
	return pairView{Pair: p, DDay: dates.DDay(p.AnniversaryDate, time.Now())}
}

func (s *Server) listPairs(c *gin.Context) {
	pairs := s.state.Pairs()
	views := make([]pairView, 0, len(pairs))
	for _, p := range pairs {
		views = append(views, s.pairView(p))
	}
	respondOK(c, views)
}

func (s *Server) createPair(c *gin.Context) {
	var in state.PairInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.state.CreatePair(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondCreated(c, s.pairView(p))
}

func (s *Server) getPair(c *gin.Context) {
	p, err := s.state.Pair(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, s.pairView(p))
}

func (s *Server) updatePair(c *gin.Context) {
	var in state.PairInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.state.UpdatePair(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, s.pairView(p))
}

func (s *Server) deletePair(c *gin.Context) {
	if err := s.state.DeletePair(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

// milestoneView is a milestone plus its prefilled calendar-event link.
type milestoneView struct {
	dates.Milestone
	CalendarLink string `json:"calendar_link"`
}

// listMilestones returns the fixed day-count and year milestones for a pair.
// Pass ?upcoming=true to drop milestones already behind today.
func (s *Server) listMilestones(c *gin.Context) {
	p, err := s.state.Pair(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	upcomingOnly, _ := strconv.ParseBool(c.Query("upcoming"))

	ms := dates.Milestones(p.AnniversaryDate, time.Now())
	views := make([]milestoneView, 0, len(ms))
	for _, m := range ms {
		if upcomingOnly && m.IsPassed {
			continue
		}
		views = append(views, milestoneView{
			Milestone:    m,
			CalendarLink: dates.GoogleCalendarLink(p.Name+" - "+m.Label, m.Date),
		})
	}
	respondOK(c, views)
}
