// Package api exposes the pairbook domain over a JSON HTTP API.
//
// All handlers are thin: binding, delegation to the state layer, and error
// mapping. Anything that mutates collections goes through state's single
// choke point.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/common/version"
	"github.com/soyj/pairbook/internal/pairbook/dialogue"
	"github.com/soyj/pairbook/internal/pairbook/state"
)

// Server holds the handler dependencies.
type Server struct {
	state     *state.State
	gen       *dialogue.Generator
	startedAt time.Time
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(st *state.State, gen *dialogue.Generator) *gin.Engine {
	s := &Server{state: st, gen: gen, startedAt: time.Now()}

	r := gin.New()
	r.Use(gin.Recovery(), traceMiddleware())

	r.GET("/health", s.health)
	r.GET("/status", s.status)

	v1 := r.Group("/api")
	{
		v1.GET("/characters", s.listCharacters)
		v1.POST("/characters", s.createCharacter)
		v1.PUT("/characters/:id", s.updateCharacter)
		v1.DELETE("/characters/:id", s.deleteCharacter)
		v1.POST("/characters/analyze", s.analyzeCharacter)

		v1.GET("/pairs", s.listPairs)
		v1.POST("/pairs", s.createPair)
		v1.GET("/pairs/:id", s.getPair)
		v1.PUT("/pairs/:id", s.updatePair)
		v1.DELETE("/pairs/:id", s.deletePair)
		v1.GET("/pairs/:id/milestones", s.listMilestones)

		v1.GET("/pairs/:id/todos", s.listTodos)
		v1.POST("/pairs/:id/todos", s.addTodo)
		v1.POST("/pairs/:id/todos/:todoID/toggle", s.toggleTodo)

		v1.GET("/bubbles", s.listBubbles)

		v1.GET("/reports", s.listReports)
		v1.POST("/reports", s.addReport)

		v1.GET("/fortune", s.getFortune)
		v1.POST("/fortune/draw", s.drawFortune)
		v1.PUT("/fortune/character", s.setFortuneChar)
	}

	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type statusResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Commit     string    `json:"commit"`
	BuildTime  string    `json:"build_time"`
	StartedAt  time.Time `json:"started_at"`
	UptimeSecs float64   `json:"uptime_seconds"`
	PairCount  int       `json:"pair_count"`
	CharCount  int       `json:"character_count"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:     "ok",
		Version:    version.Version,
		Commit:     version.GitCommit,
		BuildTime:  version.BuildTime,
		StartedAt:  s.startedAt,
		UptimeSecs: time.Since(s.startedAt).Seconds(),
		PairCount:  len(s.state.Pairs()),
		CharCount:  len(s.state.Characters()),
	})
}
