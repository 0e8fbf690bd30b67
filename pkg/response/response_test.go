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

func init() {
	gin.SetMode(gin.TestMode)
}

func record(fn func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
		code   int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "m") }, http.StatusBadRequest, -1},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "m") }, http.StatusUnauthorized, -1001},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "m") }, http.StatusForbidden, -1002},
		{"not found", func(c *gin.Context) { NotFound(c, "m") }, http.StatusNotFound, -1003},
		{"rate limited", func(c *gin.Context) { TooManyRequests(c, "m") }, http.StatusTooManyRequests, -1005},
		{"internal", func(c *gin.Context) { InternalError(c, "m") }, http.StatusInternalServerError, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := record(tt.fn)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "m", body.Message)
			assert.Nil(t, body.Data)
		})
	}
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := record(func(c *gin.Context) { Created(c, map[string]string{"id": "1"}) })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, body.Code)
	require.NotNil(t, body.Data)
	assert.Equal(t, "1", body.Data.(map[string]interface{})["id"])

	w, body = record(func(c *gin.Context) { SuccessWithStatus(c, http.StatusOK, "updated", nil) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", body.Message)
}
