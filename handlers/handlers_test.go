package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-order-bot/bot"
	"food-order-bot/catalog"
	"food-order-bot/conversation"
	"food-order-bot/dedupe"
	"food-order-bot/handlers"
	"food-order-bot/intent"
	"food-order-bot/middleware"
	"food-order-bot/models"
	"food-order-bot/routes"
	"food-order-bot/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("handler-test-secret-42")

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cats, items := catalog.SampleMenu()
	cat := catalog.New(cats, items, nil)
	machine := conversation.NewMachine(cat, intent.NewExtractor(cat, nil), nil)
	engine := bot.New(memstore.New(), cat, machine, bot.WithDeduper(dedupe.NewMemory(time.Hour)))

	r := gin.New()
	routes.SetupRoutes(r, handlers.New(engine), routes.Options{JWTSecret: secret})
	return &api{t: t, router: r}
}

func (a *api) token(userID string, role middleware.Role) string {
	tok, err := middleware.GenerateToken(secret, userID, role, time.Hour)
	require.NoError(a.t, err)
	return tok
}

func (a *api) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]json.RawMessage
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *api) chat(token string, req handlers.ChatRequest) map[string]any {
	a.t.Helper()
	w, out := a.do(http.MethodPost, "/api/chat", token, req)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var d map[string]any
	require.NoError(a.t, json.Unmarshal(out["directive"], &d))
	return d
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w, _ := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetMenu(t *testing.T) {
	a := newAPI(t)

	w, out := a.do(http.MethodGet, "/api/menu?category=sides", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.MenuItem
	require.NoError(t, json.Unmarshal(out["menu"], &items))
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, "sides", it.CategoryID)
	}
}

func TestGetStateMachineInfo(t *testing.T) {
	a := newAPI(t)
	w, out := a.do(http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(out["conversation"]), `"from":"initial"`)
	assert.Contains(t, string(out["order"]), `"actor":"staff"`)
}

func TestChatRequiresCustomerToken(t *testing.T) {
	a := newAPI(t)
	body := handlers.ChatRequest{Text: "hi"}

	w, _ := a.do(http.MethodPost, "/api/chat", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(http.MethodPost, "/api/chat", a.token("s1", middleware.RoleStaff), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChatValidation(t *testing.T) {
	a := newAPI(t)
	tok := a.token("u1", middleware.RoleCustomer)

	w, _ := a.do(http.MethodPost, "/api/chat", tok, handlers.ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(http.MethodPost, "/api/chat", tok, handlers.ChatRequest{ActionID: "select_item"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing item_id param")
}

func TestChatDuplicateMessage(t *testing.T) {
	a := newAPI(t)
	tok := a.token("u1", middleware.RoleCustomer)

	a.chat(tok, handlers.ChatRequest{MessageID: "m-1", Text: "hi"})
	w, _ := a.do(http.MethodPost, "/api/chat", tok, handlers.ChatRequest{MessageID: "m-1", Text: "hi"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChatOrderAndStaffCompletion(t *testing.T) {
	a := newAPI(t)
	alice := a.token("alice", middleware.RoleCustomer)
	bob := a.token("bob", middleware.RoleCustomer)
	staff := a.token("s1", middleware.RoleStaff)

	d := a.chat(alice, handlers.ChatRequest{Text: "I want a falafel wrap"})
	assert.Contains(t, d["text"], "Added 1 × Falafel Pita")
	assert.NotEmpty(t, d["quick_actions"])

	a.chat(alice, handlers.ChatRequest{ActionID: "checkout"})
	a.chat(alice, handlers.ChatRequest{ActionID: "pickup"})
	a.chat(alice, handlers.ChatRequest{ActionID: "payment", Params: map[string]string{"method": "cash"}})
	d = a.chat(alice, handlers.ChatRequest{ActionID: "confirm"})
	assert.Equal(t, "order_confirmed", d["kind"])

	w, out := a.do(http.MethodGet, "/api/orders", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(out["orders"], &orders))
	require.Len(t, orders, 1)
	id := orders[0].ID

	w, _ = a.do(http.MethodGet, "/api/orders/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.do(http.MethodPut, "/api/admin/orders/"+id+"/status", alice, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.do(http.MethodPut, "/api/admin/orders/"+id+"/status", staff, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = a.do(http.MethodPut, "/api/admin/orders/"+id+"/status", staff, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = a.do(http.MethodGet, "/api/admin/orders/missing", staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
