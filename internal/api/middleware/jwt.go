package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/jwthelper"
)

const (
	CtxKeyUserID = "userID"
	CtxKeyRole   = "role"
)

var (
	errMissingToken   = errors.New("missing bearer token")
	errAgentMismatch  = errors.New("token was issued to another client")
	errRoleNotAllowed = errors.New("role not allowed for this resource")
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT accepts the token from the Authorization header or, for
// websocket upgrades that cannot set headers, the access_token query param.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}
		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errAgentMismatch))
			return
		}

		ctx.Set(CtxKeyUserID, claims.UserID)
		ctx.Set(CtxKeyRole, domain.Role(claims.Role))
		ctx.Next()
	}
}

// RequireRoles must run after VerifyJWT.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(ctx *gin.Context) {
		role, _ := ctx.Get(CtxKeyRole)
		r, ok := role.(domain.Role)
		if !ok || !allowed[r] {
			response.RenderErr(ctx, response.ErrPermissionDenied(errRoleNotAllowed))
			return
		}

		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return strings.TrimSpace(ctx.Query("access_token"))
}
