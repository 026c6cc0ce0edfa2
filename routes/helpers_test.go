package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quickserve-server/config"
	"quickserve-server/database"
	"quickserve-server/middleware"
	"quickserve-server/models"
	"quickserve-server/utils"
)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine
}

// newTestEnv wires the full middleware and handler stack against an
// in-memory database, so tests exercise the same paths production
// requests take.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiryHours: 24},
		Uploads:  config.UploadConfig{Dir: t.TempDir(), MaxSizeBytes: 10 << 20},
		Location: config.LocationConfig{DefaultShareHours: 24},
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		utils.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	api := router.Group("/api")

	auth := api.Group("/auth", middleware.OptionalAuthenticate(db, cfg))
	RegisterAuthRoutes(auth, NewAuthHandler(db, cfg))

	services := api.Group("/services", middleware.OptionalAuthenticate(db, cfg))
	RegisterServiceRoutes(services, NewServiceHandler(db))

	bookings := api.Group("/bookings", middleware.Authenticate(db, cfg))
	RegisterBookingRoutes(bookings, NewBookingHandler(db))

	chat := api.Group("/chat", middleware.Authenticate(db, cfg))
	RegisterChatRoutes(chat, NewChatHandler(db, cfg))

	admin := api.Group("/admin", middleware.Authenticate(db, cfg), middleware.RequireAdmin())
	RegisterAdminRoutes(admin, NewAdminHandler(db))

	profiles := api.Group("/profiles", middleware.Authenticate(db, cfg))
	RegisterProfileRoutes(profiles, NewProfileHandler(db))

	files := api.Group("/files", middleware.Authenticate(db, cfg))
	RegisterFileRoutes(files, NewFileHandler(db, cfg))

	return &testEnv{t: t, db: db, cfg: cfg, router: router}
}

var testUserSeq int

// createUser inserts a user directly and returns it with a valid
// session token.
func (e *testEnv) createUser(role string) (*models.User, string) {
	e.t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(e.t, err)

	testUserSeq++
	user := models.User{
		FullName:     fmt.Sprintf("Test %s %d", role, testUserSeq),
		Email:        fmt.Sprintf("%s%d@example.com", role, testUserSeq),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(e.t, e.db.Create(&user).Error)

	token, err := utils.GenerateToken(user.ID, user.Role, e.cfg.JWT.Secret, e.cfg.JWT.ExpiryHours)
	require.NoError(e.t, err)

	return &user, token
}

func (e *testEnv) createService(providerID uint, title string) *models.Service {
	e.t.Helper()

	service := models.Service{
		ProviderID:   providerID,
		Title:        title,
		Description:  "A test service",
		Category:     "plumbing",
		Price:        50,
		Location:     "Springfield",
		Availability: models.DefaultAvailability(),
		WorkingHours: models.DefaultWorkingHours(),
		IsActive:     true,
	}
	require.NoError(e.t, e.db.Create(&service).Error)
	return &service
}

// request performs an in-process HTTP call. A nil body sends no
// payload; anything else is marshalled to JSON.
func (e *testEnv) request(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
