package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
	"github.com/mrlokans/bookshelf/internal/library"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	for _, value := range []string{"abc", "-1", "0"} {
		t.Run(value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: value}}

			id, ok := parseIDParam(c, "id")

			assert.False(t, ok)
			assert.Equal(t, uint(0), id)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid id")
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?limit=10", nil)

	n, ok := parseIntQuery(c, "limit", 5)
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	n, ok = parseIntQuery(c, "offset", 3)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	c.Request = httptest.NewRequest("GET", "/?limit=-2", nil)
	_, ok = parseIntQuery(c, "limit", 5)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", entities.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"conflict", entities.ErrConflict, http.StatusConflict, CodeConflict},
		{"validation", library.ValidationErrors{"title": "title is required"}, http.StatusBadRequest, CodeValidation},
		{"status", fmt.Errorf("%w: \"X\"", entities.ErrInvalidStatus), http.StatusBadRequest, CodeValidation},
		{"unknown genre", fmt.Errorf("%w: Culinária", genres.ErrUnknownGenre), http.StatusBadRequest, CodeUnknownGenre},
		{"other", errors.New("disk full"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondStoreError(c, tt.err, "book", "test")

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Error, "disk full")
		})
	}
}

func TestPaginate(t *testing.T) {
	books := []entities.Book{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	assert.Len(t, paginate(books, 0, 0), 3)
	assert.Equal(t, []entities.Book{{ID: "2"}}, paginate(books, 1, 1))
	assert.Equal(t, []entities.Book{{ID: "3"}}, paginate(books, 5, 2))
	assert.Empty(t, paginate(books, 2, 3))
}
