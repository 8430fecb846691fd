package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyj/pairbook/internal/pairbook/dialogue"
	"github.com/soyj/pairbook/internal/pairbook/state"
	"github.com/soyj/pairbook/internal/pairbook/store"
)

type memStore struct {
	mu   sync.Mutex
	data map[store.Key][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[store.Key][]byte)}
}

func (m *memStore) Read(_ context.Context, key store.Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *memStore) Write(_ context.Context, key store.Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Close() error { return nil }

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Complete(context.Context, dialogue.CompletionRequest) (*dialogue.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &dialogue.CompletionResponse{Text: p.text}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *state.State) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gen := dialogue.NewGenerator(&stubProvider{text: "You did great!"})
	st := state.New(newMemStore(), gen)
	require.NoError(t, st.Load(context.Background()))
	return NewRouter(st, gen), st
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if len(env.Data) == 0 {
		// Empty collections are omitted from the envelope.
		return
	}
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func createTestCharacter(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/characters", gin.H{
		"name":        name,
		"personality": "cheerful",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var char struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &char)
	return char.ID
}

func createTestPair(t *testing.T, r *gin.Engine, name string) string {
	t.Helper()
	c1 := createTestCharacter(t, r, name+"-a")
	c2 := createTestCharacter(t, r, name+"-b")
	w := doJSON(t, r, http.MethodPost, "/api/pairs", gin.H{
		"name":             name,
		"anniversary_date": "2024-01-01",
		"char1_id":         c1,
		"char2_id":         c2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &p)
	return p.ID
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestTraceHeaderEchoed(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-Id", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-Id"))
}

func TestCharacterCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	id := createTestCharacter(t, r, "Haru")

	w := doJSON(t, r, http.MethodGet, "/api/characters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chars []map[string]any
	decodeData(t, w, &chars)
	require.Len(t, chars, 1)
	assert.Equal(t, "Haru", chars[0]["name"])

	w = doJSON(t, r, http.MethodPut, "/api/characters/"+id, gin.H{
		"name":        "Haru",
		"personality": "grumpy",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated map[string]any
	decodeData(t, w, &updated)
	assert.Equal(t, "grumpy", updated["personality"])

	w = doJSON(t, r, http.MethodDelete, "/api/characters/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/characters", nil)
	var remaining []map[string]any
	decodeData(t, w, &remaining)
	assert.Empty(t, remaining)
}

func TestCreateCharacterRequiresName(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/characters", gin.H{"personality": "quiet"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMissingCharacterReturns404(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/characters/nope", gin.H{"name": "X"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeCharacter(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/characters/analyze", gin.H{
		"name":        "Haru",
		"personality": "cheerful",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Analysis string `json:"analysis"`
	}
	decodeData(t, w, &resp)
	assert.Equal(t, "You did great!", resp.Analysis)
}

func TestPairCRUDAndDDay(t *testing.T) {
	r, _ := newTestRouter(t)

	id := createTestPair(t, r, "us")

	w := doJSON(t, r, http.MethodGet, "/api/pairs/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p struct {
		Name string `json:"name"`
		DDay int    `json:"d_day"`
	}
	decodeData(t, w, &p)
	assert.Equal(t, "us", p.Name)
	assert.Greater(t, p.DDay, 1, "anniversary in the past should count above day 1")

	w = doJSON(t, r, http.MethodDelete, "/api/pairs/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/pairs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePairRequiresBothCharacters(t *testing.T) {
	r, _ := newTestRouter(t)
	c1 := createTestCharacter(t, r, "solo")

	w := doJSON(t, r, http.MethodPost, "/api/pairs", gin.H{
		"name":             "half",
		"anniversary_date": "2024-01-01",
		"char1_id":         c1,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMilestones(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createTestPair(t, r, "us")

	w := doJSON(t, r, http.MethodGet, "/api/pairs/"+id+"/milestones", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var ms []struct {
		Label        string `json:"label"`
		IsPassed     bool   `json:"is_passed"`
		CalendarLink string `json:"calendar_link"`
	}
	decodeData(t, w, &ms)
	require.Len(t, ms, 11)
	for _, m := range ms {
		assert.Contains(t, m.CalendarLink, "calendar.google.com")
	}

	// The 100-day mark for 2024-01-01 is long past; upcoming filters it out.
	w = doJSON(t, r, http.MethodGet, "/api/pairs/"+id+"/milestones?upcoming=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var upcoming []struct {
		IsPassed bool `json:"is_passed"`
	}
	decodeData(t, w, &upcoming)
	assert.Less(t, len(upcoming), 11)
	for _, m := range upcoming {
		assert.False(t, m.IsPassed)
	}
}

func TestTodoLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	pairID := createTestPair(t, r, "us")

	w := doJSON(t, r, http.MethodPost, "/api/pairs/"+pairID+"/todos", gin.H{
		"text": "buy flowers",
		"date": "2026-09-01",
		"time": "18:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var todo struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	}
	decodeData(t, w, &todo)
	assert.False(t, todo.Completed)

	w = doJSON(t, r, http.MethodGet, "/api/pairs/"+pairID+"/todos?date=2026-09-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var todos []struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &todos)
	require.Len(t, todos, 1)

	w = doJSON(t, r, http.MethodGet, "/api/pairs/"+pairID+"/todos?date=2026-09-02", nil)
	var other []struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &other)
	assert.Empty(t, other)

	w = doJSON(t, r, http.MethodPost, "/api/pairs/"+pairID+"/todos/"+todo.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled struct {
		Completed   bool    `json:"completed"`
		CompletedAt *string `json:"completed_at"`
	}
	decodeData(t, w, &toggled)
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)
}

func TestToggleMissingTodoReturns404(t *testing.T) {
	r, _ := newTestRouter(t)
	pairID := createTestPair(t, r, "us")

	w := doJSON(t, r, http.MethodPost, "/api/pairs/"+pairID+"/todos/nope/toggle", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReports(t *testing.T) {
	r, _ := newTestRouter(t)
	charID := createTestCharacter(t, r, "Haru")

	w := doJSON(t, r, http.MethodPost, "/api/reports", gin.H{
		"char_id": charID,
		"content": "too formal",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []struct {
		CharName string `json:"char_name"`
		Content  string `json:"content"`
	}
	decodeData(t, w, &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, "Haru", reports[0].CharName)
	assert.Equal(t, "too formal", reports[0].Content)
}

func TestFortuneFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	// No character assigned yet: drawing conflicts, reading 404s.
	w := doJSON(t, r, http.MethodGet, "/api/fortune", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/fortune/draw", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	charID := createTestCharacter(t, r, "Haru")
	w = doJSON(t, r, http.MethodPut, "/api/fortune/character", gin.H{"char_id": charID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/fortune/draw", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fortune struct {
		CharacterName string `json:"character_name"`
		Message       string `json:"message"`
		ResultLevel   string `json:"result_level"`
	}
	decodeData(t, w, &fortune)
	assert.Equal(t, "Haru", fortune.CharacterName)
	assert.NotEmpty(t, fortune.Message)
	assert.NotEmpty(t, fortune.ResultLevel)

	w = doJSON(t, r, http.MethodGet, "/api/fortune", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBubblesEmptyByDefault(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/bubbles", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var bubbles map[string]any
	decodeData(t, w, &bubbles)
	assert.Empty(t, bubbles)
}
