package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/internal/pairbook/model"
	"github.com/soyj/pairbook/internal/pairbook/state"
)

// listTodos lists a pair's todos. Pass ?date=YYYY-MM-DD to narrow to a single
// calendar day.
func (s *Server) listTodos(c *gin.Context) {
	p, err := s.state.Pair(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	date := c.Query("date")
	todos := make([]model.Todo, 0, len(p.Todos))
	for _, t := range p.Todos {
		if date != "" && t.Date != date {
			continue
		}
		todos = append(todos, t)
	}
	respondOK(c, todos)
}

func (s *Server) addTodo(c *gin.Context) {
	var in state.TodoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.state.AddTodo(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleError(c, err)
		return
	}
	respondCreated(c, t)
}

// toggleTodo flips a todo's completion. Completing a todo also kicks off
// praise-dialogue generation in the background; the response does not wait
// for it.
func (s *Server) toggleTodo(c *gin.Context) {
	t, err := s.state.ToggleTodo(c.Request.Context(), c.Param("id"), c.Param("todoID"))
	if err != nil {
		handleError(c, err)
		return
	}
	respondOK(c, t)
}
