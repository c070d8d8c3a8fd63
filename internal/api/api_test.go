package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/auth"
	"github.com/yourname/moodlog/internal/notify"
	"github.com/yourname/moodlog/internal/service"
	"github.com/yourname/moodlog/internal/storage"
)

var testNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) (*gin.Engine, *storage.MemoryStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStorage()
	logger := internal.NopLogger()
	provider := auth.NewLocalAuthProvider(store, logger)
	app := NewApp(
		logger,
		provider,
		service.NewUserService(store, provider, logger),
		service.NewEntryService(store, notify.Nop{}, logger, service.WithClock(func() time.Time { return testNow })),
	)
	return NewRouter(app), store
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/auth", `{"action":"register","username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode(t, w)
	assert.Equal(t, true, reg["success"])
	assert.Equal(t, "alice", reg["username"])
	assert.NotContains(t, reg, "isAdmin")

	w = do(r, http.MethodPost, "/auth", `{"action":"login","username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	login := decode(t, w)
	assert.Equal(t, reg["userId"], login["userId"])
	assert.Equal(t, false, login["isAdmin"])
}

func TestAuth_Errors(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/auth", `{"action":"register","username":"alice","password":"pw"}`).Code)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing password", `{"action":"login","username":"alice"}`, 400, "ユーザー名とパスワードは必須です"},
		{"missing username", `{"action":"login","password":"pw"}`, 400, "ユーザー名とパスワードは必須です"},
		{"duplicate", `{"action":"register","username":"alice","password":"x"}`, 400, "ユーザー名は既に使用されています"},
		{"wrong password", `{"action":"login","username":"alice","password":"bad"}`, 401, "ユーザー名またはパスワードが正しくありません"},
		{"unknown user", `{"action":"login","username":"bob","password":"pw"}`, 401, "ユーザー名またはパスワードが正しくありません"},
		{"bad action", `{"action":"delete","username":"alice","password":"pw"}`, 400, "無効なアクション"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/auth", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, map[string]any{"success": false, "message": tt.message}, decode(t, w))
		})
	}
}

func TestUsers_AdminOnly(t *testing.T) {
	r, _ := setupRouter(t)
	admin := decode(t, do(r, http.MethodPost, "/auth", `{"action":"register","username":"admin","password":"root"}`))
	alice := decode(t, do(r, http.MethodPost, "/auth", `{"action":"register","username":"alice","password":"pw"}`))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/users", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/users?userId="+alice["userId"].(string), "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/users?userId=ghost", "").Code)

	w := do(r, http.MethodGet, "/users?userId="+admin["userId"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
		assert.Contains(t, u, "isAdmin")
		assert.Contains(t, u, "createdAt")
	}
	assert.Equal(t, true, users[0]["isAdmin"])
	assert.Equal(t, false, users[1]["isAdmin"])
}

func TestHealth_RequiresUserID(t *testing.T) {
	r, _ := setupRouter(t)
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
		w := do(r, m, "/health", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, m)
		assert.Equal(t, map[string]any{"error": "ユーザーIDが必要です"}, decode(t, w))
	}
}

func TestHealth_CreateListUpdate(t *testing.T) {
	r, store := setupRouter(t)

	w := do(r, http.MethodGet, "/health?userId=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/health?userId=u1", `{"status":"good","rating":4,"comment":"ok","keywords":["a"],"factor":"sleep"}`)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	assert.Equal(t, true, created["success"])
	entry := created["entry"].(map[string]any)
	assert.Equal(t, "u1", entry["userId"])
	assert.Equal(t, "1743508800000", entry["id"])

	w = do(r, http.MethodPut, "/health?userId=u1", `{"id":"1743508800000","date":"2025-04-01T12:00:00.000Z","status":"poor","comment":"worse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)["entry"].(map[string]any)
	assert.Equal(t, true, updated["edited"])
	assert.Equal(t, "2025-04-01T21:00:00.000+09:00", updated["editedAt"])

	stored, err := store.ListEntries(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "worse", stored[0].Comment)

	w = do(r, http.MethodPut, "/health?userId=u1", `{"id":"nope","date":"2030-01-01T00:00:00.000Z","status":"good"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "更新対象のエントリーが見つかりませんでした", decode(t, w)["error"])

	w = do(r, http.MethodPut, "/health?userId=u1", `{"status":"good"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "エントリーIDが必要です", decode(t, w)["error"])

	w = do(r, http.MethodPost, "/health?userId=u1", `{"status":"ecstatic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/health?userId=u1", `{"comment":"just a note"}`)
	require.Equal(t, http.StatusOK, w.Code, "a partial entry is accepted")
	partial := decode(t, w)["entry"].(map[string]any)
	assert.Equal(t, "just a note", partial["comment"])
	assert.NotEmpty(t, partial["date"])
}

func TestHealth_CSVExportImport(t *testing.T) {
	r, store := setupRouter(t)
	require.NoError(t, store.AppendEntry(context.Background(), "u1", &internal.HealthEntry{
		ID: "1", Date: "2025-04-01T09:00:00.000Z", Status: internal.StatusGood, Rating: 4,
		Comment: "ok", Keywords: []string{"a", "b"}, Factor: "sleep", UserID: "u1",
	}))

	w := do(r, http.MethodGet, "/health?userId=u1&format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=health_data_u1.csv", w.Header().Get("Content-Disposition"))
	csvText := w.Body.String()
	assert.Equal(t, "日付,時間,体調,評価,キーワード,影響要因,コメント,ID\n2025/04/01,18:00:00,良い,4,\"a, b\",sleep,ok,1", csvText)

	payload, err := json.Marshal(map[string]string{"csvData": csvText})
	require.NoError(t, err)
	w = do(r, http.MethodPost, "/health?userId=u2&action=import", string(payload))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "1件のデータをインポートしました", body["message"])
	assert.Equal(t, float64(1), body["importedCount"])

	w = do(r, http.MethodPost, "/health?userId=u2&action=import", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSVデータが必要です", decode(t, w)["error"])
}

func TestHistory(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()
	for _, e := range []internal.HealthEntry{
		{ID: "a", Date: "2025-04-01T09:00:00.000Z", Status: internal.StatusGood},
		{ID: "b", Date: "2025-04-01T23:00:00.000Z", Status: internal.StatusPoor},
		{ID: "bad", Date: "invalid-date", Status: internal.StatusPoor},
	} {
		e := e
		require.NoError(t, store.AppendEntry(ctx, "u1", &e))
	}

	w := do(r, http.MethodGet, "/health/history?userId=u1&view=calendar&month=2025-04", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2025-03", body["prevMonth"])
	assert.Equal(t, "2025-05", body["nextMonth"])
	cal := body["calendar"].([]any)
	require.Len(t, cal, 1)
	assert.Equal(t, "b", cal[0].(map[string]any)["entry"].(map[string]any)["id"])

	w = do(r, http.MethodGet, "/health/history?userId=u1&view=chart&month=2025-04", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["points"], 2)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/health/history?userId=u1&view=pie", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/health/history?userId=u1&month=April", "").Code)
}

func TestCORSAndMethodNotAllowed(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		path    string
		allow   string
		badVerb string
	}{
		{"/auth", "POST", http.MethodGet},
		{"/users", "GET", http.MethodPost},
		{"/health", "GET, POST, PUT", http.MethodDelete},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(r, http.MethodOptions, tt.path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.allow+", OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))

			w = do(r, tt.badVerb, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, tt.allow, w.Header().Get("Allow"))
			assert.Equal(t, "Method "+tt.badVerb+" Not Allowed", w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}
