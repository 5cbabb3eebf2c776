package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "gym-admin-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		xerrors.ErrPlanNotFound:                               http.StatusNotFound,
		fmt.Errorf("load: %w", xerrors.ErrPaymentNotFound):    http.StatusNotFound,
		xerrors.ErrUserCategoryMismatch:                       http.StatusBadRequest,
		xerrors.ErrPlanInactive:                               http.StatusBadRequest,
		xerrors.ErrNotRetryable:                               http.StatusBadRequest,
		xerrors.ErrConflict:                                   http.StatusConflict,
		xerrors.ErrRateLimited:                                http.StatusTooManyRequests,
		errors.New("connection refused"):                      http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestFromErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, "failed to cancel subscription", errors.New("pq: relation does not exist"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "failed to cancel subscription", body.Message)
	assert.Equal(t, xerrors.ErrInternal.Error(), body.Error)
	assert.True(t, c.IsAborted())
}

func TestSuccessDefaultsToOK(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, 0, "ok", gin.H{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"ok","data":{"id":1}}`, w.Body.String())
}
