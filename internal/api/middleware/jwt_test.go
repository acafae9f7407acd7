package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/jwthelper"
)

const signingKey = "secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authed := r.Group("", NewAuthenticator(signingKey).VerifyJWT())
	authed.GET("/whoami", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"id":   ctx.GetUint(CtxKeyUserID),
			"role": ctx.MustGet(CtxKeyRole),
		})
	})
	authed.GET("/admin", RequireRoles(domain.RoleAdmin), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	return r
}

func token(t *testing.T, role domain.Role, agent string) string {
	t.Helper()

	tok, err := jwthelper.GenerateToken([]byte(signingKey), 9, string(role), agent)
	require.NoError(t, err)

	return tok
}

func TestVerifyJWT(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name  string
		path  string
		setup func(req *http.Request)
		want  int
	}{
		{
			name:  "missing token",
			path:  "/whoami",
			setup: func(*http.Request) {},
			want:  http.StatusUnauthorized,
		},
		{
			name: "bearer header",
			path: "/whoami",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleVolunteer, "agent"))
			},
			want: http.StatusOK,
		},
		{
			name:  "query param",
			path:  "/whoami?access_token=" + token(t, domain.RoleVolunteer, "agent"),
			setup: func(*http.Request) {},
			want:  http.StatusOK,
		},
		{
			name: "other user agent",
			path: "/whoami",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleVolunteer, "elsewhere"))
			},
			want: http.StatusUnauthorized,
		},
		{
			name: "signed with another key",
			path: "/whoami",
			setup: func(req *http.Request) {
				tok, err := jwthelper.GenerateToken([]byte("other"), 9, string(domain.RoleAdmin), "agent")
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+tok)
			},
			want: http.StatusUnauthorized,
		},
		{
			name: "role gate allows admin",
			path: "/admin",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleAdmin, "agent"))
			},
			want: http.StatusNoContent,
		},
		{
			name: "role gate rejects manager",
			path: "/admin",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleEventManager, "agent"))
			},
			want: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("User-Agent", "agent")
			tt.setup(req)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestVerifyJWT_SetsCaller(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("User-Agent", "agent")
	req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleEventManager, "agent"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9,"role":"EVENTMANAGER"}`, w.Body.String())
}
