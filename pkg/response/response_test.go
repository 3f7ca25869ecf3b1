package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessAndError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "rid-1")
	Success(c, 0, map[string]int{"n": 1}, "ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body APIResponse[map[string]int]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "rid-1", body.RequestID)
	assert.Equal(t, 1, body.Data["n"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Abort(c, http.StatusForbidden, "nope", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error[any](c, 0, "bad", map[string]string{"x": "is required"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
