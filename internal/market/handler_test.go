package market_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/market"
	appmw "github.com/kelechi-dev/workbid/internal/middleware"
)

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newMarketServer(t *testing.T) (*echo.Echo, *market.Board) {
	t.Helper()
	bus := events.NewBus()
	registry := identity.NewRegistry(identity.NewMemoryStore(), bus)
	board := market.NewBoard(market.NewMemoryStore(), registry, bus)

	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	require.NoError(t, registry.Register(ctx, "Client", 40, "client-1", identity.RoleClient))
	require.NoError(t, registry.Register(ctx, "Provider", 30, "provider-1", identity.RoleServiceProvider))

	h := market.NewHandler(board)
	e := echo.New()
	e.GET("/jobs", h.ListJobs)
	e.GET("/jobs/:id", h.GetJob)
	g := e.Group("")
	g.Use(appmw.JWTMiddleware)
	g.POST("/jobs", h.CreateJob, appmw.RequireRoles("client"))
	g.POST("/jobs/:id/bids", h.PlaceBid, appmw.RequireRoles("service_provider"))
	g.POST("/jobs/:id/accept", h.AcceptBid, appmw.RequireRoles("client"))
	return e, board
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateJobOverHTTP(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e, _ := newMarketServer(t)

	deadline := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"description":"design website","deadline":%q,"max_bid_value":4000}`, deadline)

	rec := do(e, http.MethodPost, "/jobs", body, signToken(t, "client-1", "client"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		JobID int64 `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.JobID)

	rec = do(e, http.MethodGet, "/jobs/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "design website")
}

func TestCreateJobPastDeadlineOverHTTP(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e, _ := newMarketServer(t)

	deadline := time.Now().Add(-time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"description":"late","deadline":%q,"max_bid_value":10}`, deadline)

	rec := do(e, http.MethodPost, "/jobs", body, signToken(t, "client-1", "client"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadline must be in the future")
}

func TestRoleGuardOverHTTP(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e, _ := newMarketServer(t)

	deadline := time.Now().Add(time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"description":"job","deadline":%q,"max_bid_value":10}`, deadline)

	// provider token cannot create jobs
	rec := do(e, http.MethodPost, "/jobs", body, signToken(t, "provider-1", "service_provider"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// missing token is unauthorized
	rec = do(e, http.MethodPost, "/jobs", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBidAndAcceptOverHTTP(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e, board := newMarketServer(t)

	deadline := time.Now().Add(time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"description":"job","deadline":%q,"max_bid_value":100}`, deadline)
	rec := do(e, http.MethodPost, "/jobs", body, signToken(t, "client-1", "client"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/jobs/1/bids",
		`{"price":100,"details":"We offer great service."}`,
		signToken(t, "provider-1", "service_provider"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// wrong payment surfaces the mismatch
	rec = do(e, http.MethodPost, "/jobs/1/accept",
		`{"provider":"provider-1","attached_payment":50}`,
		signToken(t, "client-1", "client"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/jobs/1/accept",
		`{"provider":"provider-1","attached_payment":100}`,
		signToken(t, "client-1", "client"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	job, err := board.GetJobByID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, market.JobClosed, job.Status)
	assert.Equal(t, "provider-1", job.SelectedServiceProvider)
}
