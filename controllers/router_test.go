package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/stretchr/testify/suite"
)

// RouterIntegrationTestSuite drives the full router with real tokens
type RouterIntegrationTestSuite struct {
	suite.Suite
	f      *fixture
	router *gin.Engine
	tokens map[string]string
}

func (suite *RouterIntegrationTestSuite) SetupTest() {
	suite.f = setupControllerTest(suite.T())
	suite.router = SetupRouter(config.GetConfig())

	suite.tokens = make(map[string]string)
	for _, username := range []string{"admin", "manager", "clerk"} {
		w := performRequest(suite.router, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": username, "password": "password"})
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var data loginData
		decodeData(suite.T(), decodeResponse(suite.T(), w), &data)
		suite.tokens[username] = data.AccessToken
	}
}

func (suite *RouterIntegrationTestSuite) request(username, method, path string, body interface{}) apiResponse {
	w := performAuthedRequest(suite.router, method, path, suite.tokens[username], body)
	resp := decodeResponse(suite.T(), w)
	if resp.Error != nil {
		resp.Message = fmt.Sprintf("%d %s", w.Code, resp.Error.Code)
	} else {
		resp.Message = fmt.Sprintf("%d", w.Code)
	}
	return resp
}

func (suite *RouterIntegrationTestSuite) TestOrderWorkflow() {
	f := suite.f

	created := suite.request("clerk", http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customer_name": "Priya",
		"staff_id":      f.staff.ID,
		"items":         []map[string]interface{}{{"menu_item_id": f.latte.ID, "quantity": 2}},
	})
	suite.Require().Equal("201", created.Message)
	var order models.Order
	decodeData(suite.T(), created, &order)
	requireDecimal(suite.T(), "9.00", order.Total)

	denied := suite.request("clerk", http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", order.ID),
		map[string]string{"status": models.OrderStatusCompleted})
	suite.Equal("403 FORBIDDEN", denied.Message)
	suite.Equal("Access denied. Required role: admin, manager", denied.Error.Message)
	suite.Equal("/api/v1/dashboard", denied.Error.Redirect)

	updated := suite.request("manager", http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", order.ID),
		map[string]string{"status": models.OrderStatusCompleted})
	suite.Equal("200", updated.Message)

	listed := suite.request("clerk", http.MethodGet, "/api/v1/orders?status=Completed", nil)
	suite.Equal("200", listed.Message)
	suite.Equal(int64(1), listed.Pagination.Total)

	popular := suite.request("clerk", http.MethodGet, "/api/v1/reports/popular-items", nil)
	var items []services.PopularItem
	decodeData(suite.T(), popular, &items)
	suite.Require().Len(items, 1)
	suite.Equal(int64(2), items[0].TotalQuantity)
}

func (suite *RouterIntegrationTestSuite) TestRoleGuards() {
	tests := []struct {
		username string
		method   string
		path     string
		want     string
	}{
		{"clerk", http.MethodGet, "/api/v1/menu", "200"},
		{"clerk", http.MethodGet, "/api/v1/dashboard", "200"},
		{"clerk", http.MethodGet, "/api/v1/staff", "403 FORBIDDEN"},
		{"clerk", http.MethodPost, "/api/v1/menu", "403 FORBIDDEN"},
		{"manager", http.MethodGet, "/api/v1/staff", "200"},
		{"manager", http.MethodGet, "/api/v1/users", "403 FORBIDDEN"},
		{"manager", http.MethodGet, "/api/v1/audit-logs", "403 FORBIDDEN"},
		{"admin", http.MethodGet, "/api/v1/users", "200"},
		{"admin", http.MethodGet, "/api/v1/audit-logs", "200"},
		{"", http.MethodGet, "/api/v1/orders", "401 UNAUTHORIZED"},
	}

	for _, tt := range tests {
		resp := suite.request(tt.username, tt.method, tt.path, nil)
		suite.Equal(tt.want, resp.Message, "%s %s as %q", tt.method, tt.path, tt.username)
	}
}

func (suite *RouterIntegrationTestSuite) TestRoleChangeAppliesToExistingToken() {
	resp := suite.request("admin", http.MethodPatch, fmt.Sprintf("/api/v1/users/%d/role", suite.f.clerk.ID),
		map[string]string{"role": models.RoleManager})
	suite.Require().Equal("200", resp.Message)

	staff := suite.request("clerk", http.MethodGet, "/api/v1/staff", nil)
	suite.Equal("200", staff.Message, "the role is read from the database on every request")

	deleted := suite.request("admin", http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", suite.f.clerk.ID), nil)
	suite.Require().Equal("200", deleted.Message)

	gone := suite.request("clerk", http.MethodGet, "/api/v1/menu", nil)
	suite.Equal("401 UNAUTHORIZED", gone.Message)
}

func (suite *RouterIntegrationTestSuite) TestLogoutRevokesToken() {
	resp := suite.request("manager", http.MethodPost, "/api/v1/auth/logout", nil)
	suite.Require().Equal("200", resp.Message)

	again := suite.request("manager", http.MethodGet, "/api/v1/auth/me", nil)
	suite.Equal("401 TOKEN_REVOKED", again.Message)

	other := suite.request("admin", http.MethodGet, "/api/v1/auth/me", nil)
	suite.Equal("200", other.Message, "other sessions are unaffected")
}

func (suite *RouterIntegrationTestSuite) TestLoginIsRateLimited() {
	cfg := config.GetConfig()
	cfg.LoginRatePerMinute = 1
	cfg.LoginRateBurst = 2
	router := SetupRouter(cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := performRequest(router, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": "clerk", "password": "wrong"})
		codes = append(codes, w.Code)
	}
	suite.Equal([]int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func (suite *RouterIntegrationTestSuite) TestRequestIDHeader() {
	w := performRequest(suite.router, http.MethodGet, "/api/v1/menu", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}

func TestRouterIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RouterIntegrationTestSuite))
}
