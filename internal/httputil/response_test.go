package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openballot/openballot/internal/errors"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		code           string
		expectedStatus int
		expectedError  string
	}{
		{"not found", apperrors.ErrNotFound, "", http.StatusNotFound, "not_found"},
		{"conflict", apperrors.Wrap(apperrors.ErrConflict, "duplicate vote"), "DUPLICATE_VOTE", http.StatusConflict, "conflict"},
		{"invalid input", apperrors.ErrInvalidInput, "MISSING_FIELDS", http.StatusUnprocessableEntity, "invalid_input"},
		{"unauthorized", apperrors.ErrUnauthorized, "INVALID_SECRET_CODE", http.StatusUnauthorized, "unauthorized"},
		{"locked", apperrors.ErrLocked, "LOCKED", http.StatusLocked, "locked"},
		{"rate limited", apperrors.ErrTooManyRequests, "RATE_LIMITED", http.StatusTooManyRequests, "rate_limited"},
		{"forbidden", apperrors.ErrForbidden, "NOT_ELIGIBLE", http.StatusForbidden, "forbidden"},
		{"internal error", assert.AnError, "", http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)

			HandleErrorGin(c, tt.err, tt.code, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.code, response.Code)
		})
	}
}

func TestHandleErrorGin_NilError(t *testing.T) {
	c, rec := newTestContext(t)
	HandleErrorGin(c, nil, "", nil)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleBadRequestGin(t *testing.T) {
	c, rec := newTestContext(t)
	HandleBadRequestGin(c, assert.AnError, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, rec := newTestContext(t)
	HandleValidationErrorGin(c, assert.AnError, "MISSING_FIELDS", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "validation_error", response.Error)
	assert.Equal(t, "MISSING_FIELDS", response.Code)
}

func TestMakeJSONResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	MakeJSONResponse(rec, http.StatusOK, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
