package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(env *testEnv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.GatewayIdentity())
	NewHandler(env.service).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func submitBody(businessID uuid.UUID, lat, lon float64, extra map[string]interface{}) []byte {
	body := map[string]interface{}{
		"business_id":            businessID.String(),
		"rating":                 5,
		"comment":                "Lovely pastries and quick service.",
		"latitude":               lat,
		"longitude":              lon,
		"gps_accuracy":           8.0,
		"verification_time":      30,
		"motion_detected":        true,
		"is_mock_location":       false,
		"location_history_count": 12,
		"device_info":            map[string]interface{}{"unique_id": "device-http"},
	}
	for k, v := range extra {
		body[k] = v
	}
	b, _ := json.Marshal(body)
	return b
}

func doRequest(router *gin.Engine, method, path string, body []byte, userID uuid.UUID) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, userID.String())
	}
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) common.Response {
	t.Helper()
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ============================================================================
// POST /reviews
// ============================================================================

func TestHandler_SubmitReview_Created(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)
	userID := uuid.New()

	w := doRequest(router, http.MethodPost, "/api/v1/reviews", submitBody(env.business.ID, cafeLat, cafeLon, nil), userID)
	env.service.Wait()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Review struct {
				ID       uuid.UUID `json:"id"`
				UserID   uuid.UUID `json:"user_id"`
				Verified bool      `json:"verified"`
			} `json:"review"`
			Coupon struct {
				Code string `json:"code"`
			} `json:"coupon"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, userID, resp.Data.Review.UserID, "user comes from the gateway header")
	assert.True(t, resp.Data.Review.Verified)
	assert.Len(t, resp.Data.Coupon.Code, 8)
}

func TestHandler_SubmitReview_IgnoresBodyUserID(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)
	caller := uuid.New()

	body := submitBody(env.business.ID, cafeLat, cafeLon, map[string]interface{}{"user_id": uuid.New().String()})
	w := doRequest(router, http.MethodPost, "/api/v1/reviews", body, caller)
	env.service.Wait()
	require.Equal(t, http.StatusCreated, w.Code)

	n, err := env.store.CountUserReviewsSince(context.Background(), caller, env.service.guard.StartOfDay(env.service.now()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandler_SubmitReview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       func(env *testEnv) []byte
		anonymous  bool
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "missing identity",
			body:       func(env *testEnv) []byte { return submitBody(env.business.ID, cafeLat, cafeLon, nil) },
			anonymous:  true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed body",
			body:       func(*testEnv) []byte { return []byte(`{"rating":`) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "outside geofence",
			body: func(env *testEnv) []byte {
				return submitBody(env.business.ID, cafeLat+fiveHundredMetersLat, cafeLon, nil)
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "You must be within 50m of the business",
		},
		{
			name: "mock location",
			body: func(env *testEnv) []byte {
				return submitBody(env.business.ID, cafeLat, cafeLon, map[string]interface{}{"is_mock_location": true})
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Mock GPS detected",
		},
		{
			name:       "unknown business",
			body:       func(*testEnv) []byte { return submitBody(uuid.New(), cafeLat, cafeLon, nil) },
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			router := setupRouter(env)
			userID := uuid.New()
			if tt.anonymous {
				userID = uuid.Nil
			}

			w := doRequest(router, http.MethodPost, "/api/v1/reviews", tt.body(env), userID)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			if tt.wantMsg != "" {
				assert.Contains(t, resp.Error.Message, tt.wantMsg)
			}
			assert.Zero(t, env.store.Len())
		})
	}
}

func TestHandler_SubmitReview_FieldErrors(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)

	body := submitBody(env.business.ID, cafeLat, cafeLon, map[string]interface{}{"rating": 9, "comment": "meh"})
	w := doRequest(router, http.MethodPost, "/api/v1/reviews", body, uuid.New())
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "rating")
	assert.Contains(t, resp.Fields, "comment")
}

func TestHandler_SubmitReview_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		b := env.addBusiness(t)
		w := doRequest(router, http.MethodPost, "/api/v1/reviews", submitBody(b.ID, cafeLat, cafeLon, nil), userID)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(router, http.MethodPost, "/api/v1/reviews", submitBody(env.business.ID, cafeLat, cafeLon, nil), userID)
	env.service.Wait()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// ============================================================================
// Reads
// ============================================================================

func TestHandler_GetReview(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)

	result, err := env.service.SubmitReview(context.Background(), submissionFor(uuid.New(), env.business.ID, 4))
	require.NoError(t, err)
	env.service.Wait()

	w := doRequest(router, http.MethodGet, "/api/v1/reviews/"+result.Review.ID.String(), nil, uuid.New())
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/reviews/"+uuid.New().String(), nil, uuid.New())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/reviews/not-a-uuid", nil, uuid.New())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListBusinessReviews(t *testing.T) {
	env := newTestEnv(t)
	router := setupRouter(env)

	for i := 0; i < 3; i++ {
		_, err := env.service.SubmitReview(context.Background(), submissionFor(uuid.New(), env.business.ID, 5))
		require.NoError(t, err)
	}
	env.service.Wait()

	w := doRequest(router, http.MethodGet, "/api/v1/businesses/"+env.business.ID.String()+"/reviews?limit=2", nil, uuid.New())
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Limit)
	assert.Len(t, resp.Data, 2)
}
