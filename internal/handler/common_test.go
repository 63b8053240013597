package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/models"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    int
		details map[string]any
	}{
		{
			name:    "sequence",
			err:     &aih.SequenceViolation{Expected: models.KindExit, Received: models.KindEntry},
			status:  http.StatusConflict,
			code:    util.CodeSequence,
			details: map[string]any{"expected": "exit", "received": "entry"},
		},
		{
			name:    "validation",
			err:     &aih.ValidationError{Field: "value", Reason: "must not be negative"},
			status:  http.StatusBadRequest,
			code:    util.CodeInvalidParam,
			details: map[string]any{"field": "value", "reason": "must not be negative"},
		},
		{name: "not found", err: &aih.NotFoundError{Entity: "aih", Key: 1}, status: http.StatusNotFound, code: util.CodeNotFound},
		{name: "duplicate", err: aih.ErrDuplicateRecord, status: http.StatusConflict, code: util.CodeDuplicate},
		{name: "conflict", err: aih.ErrConcurrencyConflict, status: http.StatusConflict, code: util.CodeConflict},
		{name: "storage", err: &aih.StorageError{Op: "x", Err: errors.New("disk I/O error")}, status: http.StatusServiceUnavailable, code: util.CodeStorage},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError, code: util.CodeServerErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeServiceError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			if tt.details != nil {
				assert.Equal(t, tt.details, body.Details)
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"?page=3&page_size=10", 3, 10},
		{"?page=-1&page_size=1000", 1, 20},
		{"?page=x", 1, 20},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		page, size := pageParams(c, 20)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.size, size, tt.query)
	}
}

func TestParamID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok := paramID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := paramID(c, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
}
