package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/telemetry"
)

func TestFromErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: document locked", apperr.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: document", apperr.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: timeSpent must be >= 0", apperr.ErrInvalidInput), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("%w: already assigned", apperr.ErrConflict), http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

		FromError(c, tc.err)

		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != tc.code {
			t.Fatalf("%v: expected code %q, got %q", tc.err, tc.code, body.Error.Code)
		}
	}
}
