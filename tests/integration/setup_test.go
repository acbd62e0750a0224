package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jorgenomente/hucha/internal/handlers"
	"github.com/jorgenomente/hucha/internal/logger"
	"github.com/jorgenomente/hucha/internal/middleware"
	"github.com/jorgenomente/hucha/internal/models"
	"github.com/jorgenomente/hucha/internal/services"
	"github.com/jorgenomente/hucha/internal/testutil"
	"github.com/jorgenomente/hucha/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Mail   *testutil.FakeMailDispatcher
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.BudgetMember{},
		&models.BudgetState{},
		&models.BudgetInvite{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	mail := &testutil.FakeMailDispatcher{}

	userService := services.NewUserService(db, mail, "noreply@hucha.test", "https://hucha.test")
	budgetService := services.NewBudgetService(db)
	inviteService := services.NewInviteService(db, mail, "noreply@hucha.test", "https://hucha.test")

	authHandler := handlers.NewAuthHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	expenseHandler := handlers.NewExpenseHandler(budgetService)
	inviteHandler := handlers.NewInviteHandler(inviteService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	budget := protected.Group("/budget")
	budget.GET("", budgetHandler.GetOverview)
	budget.PATCH("", budgetHandler.Rename)
	budget.PUT("/period", budgetHandler.SelectPeriod)
	budget.POST("/reset", budgetHandler.Reset)
	budget.GET("/summary", budgetHandler.GetSummary)
	budget.POST("/movements", budgetHandler.AddMovement)

	incomes := budget.Group("/incomes")
	incomes.GET("", budgetHandler.ListIncomes)
	incomes.POST("/:id/received", budgetHandler.ToggleReceived)
	incomes.PATCH("/:id", budgetHandler.UpdateIncome)
	incomes.DELETE("/:id", budgetHandler.RemoveIncome)

	personas := budget.Group("/personas")
	personas.GET("", budgetHandler.ListPersonas)
	personas.POST("/rename", budgetHandler.RenamePersona)
	personas.PUT("/theme", budgetHandler.SetPersonaTheme)

	expenses := budget.Group("/expenses")
	expenses.GET("", expenseHandler.ListFixed)
	expenses.PUT("/:id", expenseHandler.UpdateFixed)
	expenses.POST("/:id/paid", expenseHandler.TogglePaid)
	expenses.PUT("/:id/payment-date", expenseHandler.UpdatePaymentDate)
	expenses.DELETE("/:id", expenseHandler.RemoveFixed)

	variable := budget.Group("/variable-expenses")
	variable.GET("", expenseHandler.ListVariable)
	variable.POST("", expenseHandler.AddVariable)
	variable.DELETE("/:id", expenseHandler.RemoveVariable)

	invites := protected.Group("/invites")
	invites.POST("", inviteHandler.CreateInvite)
	invites.GET("", inviteHandler.ListInvites)
	invites.DELETE("/:id", inviteHandler.RevokeInvite)
	invites.POST("/accept", inviteHandler.AcceptInvite)

	protected.GET("/members", inviteHandler.ListMembers)

	return &testApp{DB: db, Mail: mail, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"display_name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
