package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/request"
	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/jwthelper"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

type AuthService interface {
	RequestOtp(ctx context.Context, email string, purpose domain.OtpPurpose) (time.Time, error)
	Signup(ctx context.Context, user domain.User, code string) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	ResetPassword(ctx context.Context, email, code, password string) error
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleRequestOtp godoc
// @Summary      Send a one-time code to an email address
// @Tags         auth
// @Produce      json
// @Param        request   body      request.OtpRequest true "request body"
// @Success      200      {object}   response.OtpResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/otp [post]
func (h *AuthHandler) HandleRequestOtp(ctx *gin.Context) {
	var req request.OtpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	expiresAt, err := h.svc.RequestOtp(ctx.Request.Context(), req.Email, domain.OtpPurpose(req.Purpose))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRequestOtp -> h.svc.RequestOtp", err)
		return
	}

	ctx.JSON(http.StatusOK, response.OtpResponse{
		Email:     req.Email,
		ExpiresAt: expiresAt,
	})
}

// HandleSignup godoc
// @Summary      Signup a new user
// @Tags         auth
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), domain.User{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	}, req.Otp)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSignup -> h.svc.Signup", err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// HandleLogin godoc
// @Summary      Login a user
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(service.ErrWrongPassword))

			return
		}

		renderServiceErr(ctx, "v1.HandleLogin -> h.svc.Login", err)

		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, string(user.Role), ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken() -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleResetPassword godoc
// @Summary      Reset a password with a one-time code
// @Tags         auth
// @Produce      json
// @Param        request   body      request.ResetPasswordRequest true "request body"
// @Success      200      {object}   response.MessageResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(ctx *gin.Context) {
	var req request.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.ResetPassword(ctx.Request.Context(), req.Email, req.Otp, req.Password); err != nil {
		renderServiceErr(ctx, "v1.HandleResetPassword -> h.svc.ResetPassword", err)
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "password updated"})
}
