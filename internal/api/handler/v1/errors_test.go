package v1

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

	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

func TestRenderServiceErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation keeps details", fmt.Errorf("%w: name: cannot be blank", service.ErrValidation),
			http.StatusBadRequest, "validation failed: name: cannot be blank"},
		{"closed event", fmt.Errorf("s.repo.Register -> %w", service.ErrEventNotOpen),
			http.StatusBadRequest, service.ErrEventNotOpen.Error()},
		{"upload type", fmt.Errorf("a.gif -> %w", storage.ErrUnsupportedType),
			http.StatusBadRequest, storage.ErrUnsupportedType.Error()},
		{"permission", service.ErrPermissionDenied, http.StatusForbidden, service.ErrPermissionDenied.Error()},
		{"not found", fmt.Errorf("x -> %w", service.ErrPostNotFound), http.StatusNotFound, service.ErrPostNotFound.Error()},
		{"capacity", fmt.Errorf("x -> %w", service.ErrCapacityExceeded), http.StatusConflict, service.ErrCapacityExceeded.Error()},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error: op -> disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			renderServiceErr(ctx, "op", tt.err)

			assert.Equal(t, tt.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
