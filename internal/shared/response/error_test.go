package response

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

	apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"
)

func recordDomainError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	DomainError(c, err)
	return w
}

func TestDomainError(t *testing.T) {
	t.Run("resolves status, code and message from an AppError", func(t *testing.T) {
		w := recordDomainError(apperrors.NotFound("order"))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Code)
		assert.Equal(t, "order not found", body.Error)
	})

	t.Run("resolves a wrapped AppError", func(t *testing.T) {
		sentinel := apperrors.StateConflict("charge is not pending")
		w := recordDomainError(fmt.Errorf("%w: charge abc is PAID", sentinel))

		assert.Equal(t, http.StatusConflict, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "STATE_CONFLICT", body.Code)
		assert.Equal(t, "charge is not pending", body.Error)
	})

	t.Run("unknown errors answer 500 without detail", func(t *testing.T) {
		w := recordDomainError(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "internal error", body.Error)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
