package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calorbunga/backend/internal/database"
	"github.com/calorbunga/backend/internal/middleware"
	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/internal/service"
	"github.com/calorbunga/backend/pkg/logger"
)

type stubEstimator struct {
	fail map[string]bool
}

func (e *stubEstimator) Estimate(_ context.Context, description string) (*models.NutritionEstimate, error) {
	if e.fail[description] {
		return nil, errors.New("model unavailable")
	}
	return &models.NutritionEstimate{Calories: 100, Protein: 10, Carbs: 5, Fat: 3}, nil
}

type testApp struct {
	router    *gin.Engine
	estimator *stubEstimator
	store     *service.LogStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	log := logger.NewNop()
	estimator := &stubEstimator{fail: make(map[string]bool)}
	store := service.NewLogStore(db, "test-namespace", log)
	ingest := service.NewIngestionService(estimator, store, nil, log)
	export := service.NewExportService(nil, log)
	authService := service.NewAuthService(db, "test-secret")

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewAuthHandler(authService).RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	NewLogHandler(store, ingest, export, log).RegisterRoutes(protected, nil)

	return &testApp{router: router, estimator: estimator, store: store}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Surfer",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.registerUser(t, "surfer@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Other",
		"email":    "surfer@example.com",
		"password": "password456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "surfer@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "surfer@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/v1/log/entries?date=2024-12-25", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/log/entries?date=2024-12-25", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestAndListDay(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")
	day := "2024-12-25"

	w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
		"text": "rice, beans",
		"date": day,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Entries []*models.FoodLogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Entries, 2)
	assert.Equal(t, "rice", created.Entries[0].Name)
	assert.Equal(t, "beans", created.Entries[1].Name)

	w = app.do(t, http.MethodGet, "/api/v1/log/entries?date="+day, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot struct {
		Entries []*models.FoodLogEntry `json:"entries"`
		Totals  service.DailyTotals    `json:"totals"`
		Theme   service.Theme          `json:"theme"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Entries, 2)
	assert.Equal(t, 200, snapshot.Totals.Calories)
	assert.Equal(t, 20, snapshot.Totals.Protein)
	assert.Equal(t, "protein", snapshot.Theme.Key)
}

func TestIngestPartialFailure(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")
	app.estimator.fail["beans"] = true

	w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
		"text": "rice, beans, water",
		"date": "2024-12-25",
	})
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Error   string                 `json:"error"`
		Entries []*models.FoodLogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Wipeout! Save failed.", resp.Error)
	// The first item persisted; the failed one and everything after did not
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "rice", resp.Entries[0].Name)
}

func TestIngestRejectsBadDayKey(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")

	for _, date := range []string{"", "2024-12", "25-12-2024", "2024/12/25"} {
		w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
			"text": "rice",
			"date": date,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "date %q", date)
	}
}

func TestDeleteEntry(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")
	day := "2024-12-25"

	w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
		"text": "rice",
		"date": day,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Entries []*models.FoodLogEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Entries, 1)

	id := created.Entries[0].ID
	w = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/log/entries/%s", id), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/log/entries/%s", id), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodDelete, "/api/v1/log/entries/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSV(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")
	day := "2024-12-25"

	w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
		"text": "Tofu",
		"date": day,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/log/export?date="+day, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="calorbunga_log_2024-12-25.csv"`,
		w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Time,Date,Calories,Protein,Carbs,Fat,Water", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"Tofu",`), "row: %s", lines[1])
	assert.True(t, strings.HasSuffix(lines[1], `"2024-12-25",100,10,5,3,0`), "row: %s", lines[1])
}

func TestExportUploadUnconfigured(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/log/export?date=2024-12-25&upload=true", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestClipboard(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")
	day := "2024-12-25"

	w := app.do(t, http.MethodPost, "/api/v1/log/entries", token, gin.H{
		"text": "coffee, toast",
		"date": day,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/log/clipboard?date="+day, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Names come back most recent first
	assert.Contains(t, []string{"coffee, toast", "toast, coffee"}, w.Body.String())
}

func TestPendingInputWithoutRedis(t *testing.T) {
	app := newTestApp(t)
	token := app.registerUser(t, "surfer@example.com")

	w := app.do(t, http.MethodPut, "/api/v1/log/pending", token, gin.H{"text": "half-typed brea"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/log/pending", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "", resp.Text)
}
