package v1

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

var (
	badRequestErrs = []error{
		service.ErrEventNotOpen,
		service.ErrInvalidEventAction,
		service.ErrRoleNotAllowed,
		service.ErrInvalidOtp,
		service.ErrOtpExpired,
		service.ErrInvalidRegistrationStatus,
		storage.ErrUnsupportedType,
		storage.ErrFileTooLarge,
		errTooManyFiles,
		errMalformedUpload,
	}
	forbiddenErrs = []error{
		service.ErrPermissionDenied,
		service.ErrUserLocked,
		service.ErrCannotModifySelf,
	}
	notFoundErrs = []error{
		service.ErrEventNotFound,
		service.ErrRegistrationNotFound,
		service.ErrUserNotFound,
		service.ErrPostNotFound,
		service.ErrCommentNotFound,
		service.ErrNotificationNotFound,
		service.ErrSubscriptionNotFound,
	}
	conflictErrs = []error{
		service.ErrEventNotPending,
		service.ErrEventAlreadyCompleted,
		service.ErrEventNotApproved,
		service.ErrRegistrationExists,
		service.ErrCapacityExceeded,
		service.ErrRegistrationNotPending,
		service.ErrRegistrationNotCompletable,
		service.ErrRegistrationNotCancellable,
		service.ErrCancelAlreadyRequested,
		service.ErrUserEmailExists,
	}
)

func matchErr(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}

	return nil
}

// renderServiceErr maps an error returned by a service call to a response.
// op names the failing call for the 500 message.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrValidation) {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if target := matchErr(err, badRequestErrs); target != nil {
		response.RenderErr(ctx, response.ErrBadRequest(target))
		return
	}
	if target := matchErr(err, forbiddenErrs); target != nil {
		response.RenderErr(ctx, response.ErrPermissionDenied(target))
		return
	}
	if target := matchErr(err, notFoundErrs); target != nil {
		response.RenderErr(ctx, response.ErrResourceNotFound(target))
		return
	}
	if target := matchErr(err, conflictErrs); target != nil {
		response.RenderErr(ctx, response.ErrConflict(target))
		return
	}

	response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
}
