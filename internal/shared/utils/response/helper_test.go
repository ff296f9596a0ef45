package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"venuely/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestRespondPlainError(t *testing.T) {
	t.Run("capacity rejection reports remaining", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondPlainError(c, apperrors.NewCapacityExceeded(6, 0), "venue not found")
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body PlainError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Remaining)
		assert.Equal(t, 0, *body.Remaining)
		assert.Contains(t, body.Error, "capacity exceeded")
	})

	t.Run("not found uses the caller's message", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondPlainError(c, fmt.Errorf("venue %s: %w", "x", apperrors.ErrNotFound), "venue not found")
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"venue not found"}`, w.Body.String())
	})

	t.Run("internal details are withheld", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondPlainError(c, errors.New("pq: connection refused"), "")
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	})
}

func TestRespondError(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		RespondError(c, "Failed to update venue", apperrors.ErrConflict)
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var body StandardApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, http.StatusConflict, body.StatusCode)
	assert.Equal(t, "Failed to update venue", body.Message)
	assert.Nil(t, body.Data)
}

func TestRespondSuccess(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		RespondSuccess(c, "ok", gin.H{"remaining": 5})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","status_code":200,"message":"ok","data":{"remaining":5}}`, w.Body.String())
}
