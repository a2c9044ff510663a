package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/middleware"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/kendall-kelly/cafe-manager-api/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type errorPayload struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details"`
	Redirect string      `json:"redirect"`
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`
	Error      *errorPayload   `json:"error"`
}

// fixture is a migrated database with one account per role, one barista and two drinks
type fixture struct {
	db       *gorm.DB
	images   *services.MockImageService
	admin    *models.User
	manager  *models.User
	clerk    *models.User
	staff    *models.Staff
	espresso *models.MenuItem
	latte    *models.MenuItem
}

func testConfig() *config.Config {
	return &config.Config{
		GoEnv:              "test",
		JWTSecret:          "controllers-test-secret",
		JWTIssuer:          "cafe-manager-api",
		JWTAudience:        "cafe-manager",
		TokenTTL:           time.Hour,
		Timezone:           "UTC",
		LoginRatePerMinute: 60,
		LoginRateBurst:     20,
	}
}

func setupControllerTest(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	originalDB := config.GetDB()
	originalCfg := config.GetConfig()
	originalImages := services.GetImageService()
	originalStore := services.GetTokenStore()
	t.Cleanup(func() {
		config.SetDB(originalDB)
		config.SetConfig(originalCfg)
		services.SetImageService(originalImages)
		services.SetTokenStore(originalStore)
	})

	images := services.NewMockImageService()
	config.SetDB(db)
	config.SetConfig(testConfig())
	services.SetImageService(images)
	services.SetTokenStore(services.NewMemoryTokenStore())

	return &fixture{
		db:       db,
		images:   images,
		admin:    testutil.CreateUser(t, db, "admin", models.RoleAdmin),
		manager:  testutil.CreateUser(t, db, "manager", models.RoleManager),
		clerk:    testutil.CreateUser(t, db, "clerk", models.RoleStaff),
		staff:    testutil.CreateStaff(t, db, "101", "Asha"),
		espresso: testutil.CreateMenuItem(t, db, "Espresso", "3.00"),
		latte:    testutil.CreateMenuItem(t, db, "Latte", "4.50"),
	}
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware sets up the context exactly as EnsureValidToken and LoadCurrentUser do
func mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUserID, strconv.FormatUint(uint64(user.ID), 10))
			c.Set(middleware.ContextCurrentUser, user)
		}
		c.Next()
	}
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return performAuthedRequest(router, method, path, "", body)
}

// performAuthedRequest sends body as JSON with an optional bearer token
func performAuthedRequest(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "response should be valid JSON: %s", w.Body.String())
	return resp
}

func decodeData(t *testing.T, resp apiResponse, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) apiResponse {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func idPath(format string, id uint) string {
	return fmt.Sprintf(format, id)
}
