package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/users/internal/metrics"
	userHTTP "github.com/allisson/users/internal/user/http"
	"github.com/allisson/users/internal/user/usecase"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockUserUseCase is a mock implementation of usecase.UseCase
type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) Create(ctx context.Context, input usecase.CreateUserInput) (*usecase.UserOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UserOutput), args.Error(1)
}

func (m *mockUserUseCase) GetByID(ctx context.Context, id uuid.UUID) (*usecase.UserOutput, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UserOutput), args.Error(1)
}

func (m *mockUserUseCase) GetByEmail(ctx context.Context, email string) (*usecase.UserOutput, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UserOutput), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestServer creates a test server with a discarding logger and no database.
func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

// createFullRouter wires the user routes on top of a mocked use case.
func createFullRouter(t *testing.T, cfg RouterConfig) (*Server, *mockUserUseCase) {
	t.Helper()

	useCase := &mockUserUseCase{}
	server := createTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server.SetupRouter(ctx, cfg, userHTTP.NewUserHandler(useCase, discardLogger()), nil)
	return server, useCase
}

func sampleOutput() *usecase.UserOutput {
	return &usecase.UserOutput{
		ID:         uuid.MustParse("3c6b8f5a-6d53-4d4e-9f0c-3e2a1b7c9d10"),
		Name:       "Ana Silva",
		Email:      "ana.silva@example.com",
		CPF:        "39053344705",
		Profession: "Engineer",
		CreatedAt:  "2025-08-23T18:27:11Z",
	}
}

// TestHealthHandler tests the health check endpoint handler.
func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

// TestReadinessHandler tests the readiness endpoint against the database state.
func TestReadinessHandler(t *testing.T) {
	t.Run("NotReady_NilDB", func(t *testing.T) {
		server := createTestServer()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "not_ready", response["status"])

		components, ok := response["components"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "error", components["database"])
	})

	t.Run("Ready_PingSucceeds", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 8080, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, w.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("NotReady_PingFails", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
		}()
		dbMock.ExpectPing().WillReturnError(assert.AnError)

		server := NewServer(db, "localhost", 8080, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// TestCustomLoggerMiddleware tests the custom logging middleware.
func TestCustomLoggerMiddleware(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return "0198d7f0-0000-7000-8000-000000000001"
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test?email=x", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"msg":"http request"`)
	assert.Contains(t, buf.String(), `"request_id":"0198d7f0-0000-7000-8000-000000000001"`)
	assert.Contains(t, buf.String(), `"path":"/test"`)
	assert.Contains(t, buf.String(), `"query":"email=x"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

// TestRouter_Routes exercises the routes registered by SetupRouter.
func TestRouter_Routes(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		server, _ := createFullRouter(t, RouterConfig{})

		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	t.Run("Ready_NoDatabase", func(t *testing.T) {
		server, _ := createFullRouter(t, RouterConfig{})

		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("CreateUser", func(t *testing.T) {
		server, useCase := createFullRouter(t, RouterConfig{})
		useCase.On("Create", mock.Anything, usecase.CreateUserInput{
			Name:       "Ana Silva",
			Email:      "ana.silva@example.com",
			CPF:        "390.533.447-05",
			Profession: "Engineer",
		}).Return(sampleOutput(), nil)

		body := `{"name":"Ana Silva","email":"ana.silva@example.com","cpf":"390.533.447-05","profession":"Engineer"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{
			"id": "3c6b8f5a-6d53-4d4e-9f0c-3e2a1b7c9d10",
			"name": "Ana Silva",
			"email": "ana.silva@example.com",
			"cpf": "39053344705",
			"profession": "Engineer",
			"createdAt": "2025-08-23T18:27:11Z"
		}`, w.Body.String())
	})

	t.Run("GetUserByID", func(t *testing.T) {
		server, useCase := createFullRouter(t, RouterConfig{})
		output := sampleOutput()
		useCase.On("GetByID", mock.Anything, output.ID).Return(output, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/users/"+output.ID.String(), nil)
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		server, useCase := createFullRouter(t, RouterConfig{})
		useCase.On("GetByEmail", mock.Anything, "ana.silva@example.com").Return(sampleOutput(), nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/users?email=ana.silva@example.com", nil)
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		useCase.AssertExpectations(t)
	})

	t.Run("NotFound_UsesErrorBody", func(t *testing.T) {
		server, _ := createFullRouter(t, RouterConfig{})

		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "not_found", response["error"])
		assert.Equal(t, "/nonexistent", response["path"])
		assert.EqualValues(t, http.StatusNotFound, response["status"])
	})

	t.Run("NoMetricsEndpoint", func(t *testing.T) {
		server, _ := createFullRouter(t, RouterConfig{})

		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("PanicBecomesInternalError", func(t *testing.T) {
		server, useCase := createFullRouter(t, RouterConfig{})
		useCase.On("GetByEmail", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users?email=a@b.com", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"internal_error"`)
		assert.Contains(t, w.Body.String(), `"message":"Unexpected error"`)
	})
}

// TestRouter_RateLimitOnCreate verifies only user creation is rate limited.
func TestRouter_RateLimitOnCreate(t *testing.T) {
	server, useCase := createFullRouter(t, RouterConfig{
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 0.001,
		RateLimitBurst:          1,
	})
	useCase.On("Create", mock.Anything, mock.Anything).Return(sampleOutput(), nil)
	useCase.On("GetByEmail", mock.Anything, mock.Anything).Return(sampleOutput(), nil)

	post := func() *httptest.ResponseRecorder {
		body := `{"name":"Ana Silva","email":"ana.silva@example.com","cpf":"39053344705","profession":"Engineer"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.GetHandler().ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, post().Code)

	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"too_many_requests"`)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users?email=a@b.com", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// TestServer_ShutdownGracefully tests graceful server shutdown.
func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "127.0.0.1", 0, discardLogger())
	server.SetupRouter(context.Background(), RouterConfig{}, userHTTP.NewUserHandler(&mockUserUseCase{}, discardLogger()), nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	require.NoError(t, server.Shutdown(shutdownCtx))
	assert.NoError(t, <-errChan)
}

// TestServer_StartWithoutRouter verifies Start refuses to run without routes.
func TestServer_StartWithoutRouter(t *testing.T) {
	server := createTestServer()

	err := server.Start(context.Background())

	assert.EqualError(t, err, "router not configured")
}

// TestRouter_HTTPMetrics verifies request metrics are recorded when a provider is given.
func TestRouter_HTTPMetrics(t *testing.T) {
	provider, err := metrics.NewProvider("users_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	server := createTestServer()
	server.SetupRouter(context.Background(), RouterConfig{MetricsNamespace: "users_test"},
		userHTTP.NewUserHandler(&mockUserUseCase{}, discardLogger()), provider)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "users_test_http_requests_total")
}

// TestMetricsServer_Endpoints tests the metrics server endpoints.
func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestMetricsServer_WithoutProvider serves only the health endpoint.
func TestMetricsServer_WithoutProvider(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
