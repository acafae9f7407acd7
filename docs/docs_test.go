package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocumentsRoutes(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath    string                                `json:"basePath"`
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Len(t, doc.Paths, 40)

	routes := map[string]string{
		"/auth/signup":                                   "post",
		"/events/public":                                 "get",
		"/events/{eventID}":                              "delete",
		"/events/{eventID}/complete":                     "put",
		"/registrations/{eventID}":                       "post",
		"/registrations/{registrationID}/cancel-request": "put",
		"/notifications/ws":                              "get",
		"/admin/events/{eventID}/approve":                "put",
		"/admin/stats":                                   "get",
	}
	for path, method := range routes {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, path) {
			assert.Contains(t, ops, method, path)
		}
	}

	for _, name := range []string{"domain.Event", "domain.Registration", "request.SignupRequest", "response.Err"} {
		assert.Contains(t, doc.Definitions, name)
	}
}
