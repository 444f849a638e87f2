package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenario-server/internal/model"
	"scenario-server/internal/service"
	svcmocks "scenario-server/internal/service/mocks"
)

func setupRouter(svc *svcmocks.GameService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewGameHandler(svc, zap.NewNop())
	h.RegisterRoutes(router, nil)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitTurn_StreamsPlainText(t *testing.T) {
	svc := &svcmocks.GameService{Chunks: []string{"Ребенок ", "пошел ", "в школу."}}
	sessionID := uuid.New()

	svc.On("SubmitTurn", mock.Anything, mock.MatchedBy(func(req service.SubmitTurnRequest) bool {
		return req.SessionID == sessionID && len(req.Messages) == 1
	}), mock.Anything).Return(nil).Once()

	router := setupRouter(svc)
	body := `{"sessionId":"` + sessionID.String() + `","messages":[{"role":"user","content":"Начинаем"}]}`
	w := performJSON(t, router, http.MethodPost, "/api/chat", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "Ребенок пошел в школу.", w.Body.String())
	svc.AssertExpectations(t)
}

func TestSubmitTurn_NotFoundBeforeStreamIsJSON(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	svc.On("SubmitTurn", mock.Anything, mock.Anything, mock.Anything).
		Return(model.ErrNotFound).Once()

	router := setupRouter(svc)
	body := `{"sessionId":"` + sessionID.String() + `","messages":[{"role":"user","content":"x"}]}`
	w := performJSON(t, router, http.MethodPost, "/api/chat", body)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.NotEmpty(t, apiErr.Error)
}

func TestSubmitTurn_InvalidBody(t *testing.T) {
	router := setupRouter(new(svcmocks.GameService))

	w := performJSON(t, router, http.MethodPost, "/api/chat", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(t, router, http.MethodPost, "/api/chat", `{"sessionId":"not-a-uuid","messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChatHistory_FoldsSystemIntoAssistant(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	now := time.Now().UTC().Truncate(time.Second)
	turnIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	turns := []*model.ConversationTurn{
		{ID: turnIDs[0], Role: model.TurnRoleSystem, Content: "начальная сцена", Timestamp: now, TurnNumber: 0},
		{ID: turnIDs[1], Role: model.TurnRoleUser, Content: "иду гулять", Timestamp: now, TurnNumber: 1},
		{ID: turnIDs[2], Role: model.TurnRoleAssistant, Content: "хорошо", Timestamp: now, TurnNumber: 2},
	}
	svc.On("GetHistory", mock.Anything, sessionID).Return(turns, nil).Once()

	router := setupRouter(svc)
	w := performJSON(t, router, http.MethodGet, "/api/chat?sessionId="+sessionID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)

	var messages []turnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 3)
	assert.Equal(t, "assistant", messages[0].Role)
	assert.Equal(t, "начальная сцена", messages[0].Content)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)

	// У каждого сообщения сохраняются id, timestamp и turn_number хода.
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for i, msg := range raw {
		assert.Contains(t, msg, "id")
		assert.Contains(t, msg, "timestamp")
		assert.Contains(t, msg, "turn_number")
		assert.Equal(t, turnIDs[i], messages[i].ID)
		assert.Equal(t, i, messages[i].TurnNumber)
		assert.True(t, now.Equal(messages[i].Timestamp))
	}
}

func TestGetChatHistory_RequiresSessionID(t *testing.T) {
	router := setupRouter(new(svcmocks.GameService))

	w := performJSON(t, router, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(t, router, http.MethodGet, "/api/chat?sessionId=oops", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetConversation_ReturnsOrderedMessages(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	turns := []*model.ConversationTurn{
		{ID: uuid.New(), SessionID: sessionID, Role: model.TurnRoleUser, Content: "a", TurnNumber: 0, Timestamp: time.Now().UTC()},
		{ID: uuid.New(), SessionID: sessionID, Role: model.TurnRoleAssistant, Content: "b", TurnNumber: 1, Timestamp: time.Now().UTC()},
	}
	svc.On("GetHistory", mock.Anything, sessionID).Return(turns, nil).Once()

	router := setupRouter(svc)
	w := performJSON(t, router, http.MethodGet, "/api/conversation?sessionId="+sessionID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []turnResponse `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, 0, resp.Messages[0].TurnNumber)
	assert.Equal(t, 1, resp.Messages[1].TurnNumber)
}

func TestAppendTurn_RequiresTurnNumber(t *testing.T) {
	router := setupRouter(new(svcmocks.GameService))

	body := `{"sessionId":"` + uuid.NewString() + `","role":"user","content":"x"}`
	w := performJSON(t, router, http.MethodPost, "/api/conversation", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppendTurn_Success(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	turn := &model.ConversationTurn{ID: uuid.New(), SessionID: sessionID, Role: model.TurnRoleUser, Content: "x", TurnNumber: 0}
	svc.On("AppendTurn", mock.Anything, sessionID, "user", "x", 0).Return(turn, nil).Once()

	router := setupRouter(svc)
	body := `{"sessionId":"` + sessionID.String() + `","role":"user","content":"x","turnNumber":0}`
	w := performJSON(t, router, http.MethodPost, "/api/conversation", body)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Message turnResponse `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user", resp.Message.Role)
	svc.AssertExpectations(t)
}

func TestCreateSession_Success(t *testing.T) {
	svc := new(svcmocks.GameService)
	userID := uuid.New()
	scenarioID := uuid.New()

	session := &model.GameSession{ID: uuid.New(), UserID: userID, ScenarioID: scenarioID, Status: model.SessionStatusActive}
	svc.On("CreateSession", mock.Anything, userID, scenarioID, mock.Anything).Return(session, nil).Once()

	router := setupRouter(svc)
	body := `{"userId":"` + userID.String() + `","scenarioId":"` + scenarioID.String() + `"}`
	w := performJSON(t, router, http.MethodPost, "/api/session", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), session.ID.String())
}

func TestCreateSession_UnknownScenario(t *testing.T) {
	svc := new(svcmocks.GameService)
	svc.On("CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, model.ErrNotFound).Once()

	router := setupRouter(svc)
	body := `{"userId":"` + uuid.NewString() + `","scenarioId":"` + uuid.NewString() + `"}`
	w := performJSON(t, router, http.MethodPost, "/api/session", body)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSession_ParsesStateAndTemplate(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	session := &model.SessionWithScenario{
		GameSession: model.GameSession{
			ID:           sessionID,
			UserID:       uuid.New(),
			ScenarioID:   uuid.New(),
			Status:       model.SessionStatusActive,
			CurrentState: json.RawMessage(`"{\"current_location\":\"школа\"}"`), // дважды закодировано
		},
		ScenarioName:         "Sim",
		ScenarioTemplateJSON: json.RawMessage(`{broken`),
	}
	svc.On("GetSession", mock.Anything, sessionID).Return(session, nil).Once()

	router := setupRouter(svc)
	w := performJSON(t, router, http.MethodGet, "/api/session/"+sessionID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session parsedSessionResponse `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "школа", resp.Session.CurrentState.CurrentLocation)
	// Битый шаблон отдается пустой структурой, а не ошибкой.
	assert.NotNil(t, resp.Session.Scenarios.Template.Attributes)
}

func TestListSessions_RequiresUserID(t *testing.T) {
	router := setupRouter(new(svcmocks.GameService))

	w := performJSON(t, router, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession_ReturnsDeletedRow(t *testing.T) {
	svc := new(svcmocks.GameService)
	sessionID := uuid.New()

	deleted := &model.SessionWithScenario{
		GameSession:  model.GameSession{ID: sessionID, Status: model.SessionStatusActive, CurrentState: json.RawMessage(`{}`)},
		ScenarioName: "Sim",
	}
	svc.On("DeleteSession", mock.Anything, sessionID).Return(deleted, nil).Once()

	router := setupRouter(svc)
	w := performJSON(t, router, http.MethodDelete, "/api/session/"+sessionID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, sessionID, resp.Data[0].ID)
}

func TestDeleteSession_NotFound(t *testing.T) {
	svc := new(svcmocks.GameService)
	svc.On("DeleteSession", mock.Anything, mock.Anything).Return(nil, model.ErrNotFound).Once()

	router := setupRouter(svc)
	w := performJSON(t, router, http.MethodDelete, "/api/session/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScenarioEndpoints(t *testing.T) {
	svc := new(svcmocks.GameService)
	scenarioID := uuid.New()
	scenario := &model.Scenario{ID: scenarioID, Name: "Sim", TemplateJSON: json.RawMessage(`{}`)}

	svc.On("CreateScenario", mock.Anything, "Sim", "desc", mock.Anything).Return(scenario, nil).Once()
	svc.On("GetScenario", mock.Anything, scenarioID).Return(scenario, nil).Once()

	router := setupRouter(svc)

	w := performJSON(t, router, http.MethodPost, "/api/scenario", `{"name":"Sim","description":"desc","templateJson":{}}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = performJSON(t, router, http.MethodGet, "/api/scenario/"+scenarioID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), scenarioID.String())
}
