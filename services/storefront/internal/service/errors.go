package service

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

// Messages shown to the shopper.
const (
	MsgSessionExpired   = "Your session has expired. Please log in again."
	MsgLoginRequired    = "Please log in to continue."
	MsgCartEmpty        = "Your cart is empty. Please add products before checkout."
	MsgCheckoutFailed   = "Something went wrong while placing the order. Please try again."
	MsgUploadFailed     = "Screenshot upload failed. Please try again."
	MsgOrdersFailed     = "Failed to load your orders. Please try again later."
	MsgSubmitInFlight   = "Your order is already being placed. Please wait."
	MsgAdminOnly        = "Admin access required."
	MsgConfirmationGone = "No recent order to show."
)

// Redirect hints for the browser.
const (
	RedirectLogin = "/login"
	RedirectCart  = "/cart"
	RedirectHome  = "/"
)

func errAuthRequired(message string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:     "AUTH_REQUIRED",
		Message:  message,
		Redirect: RedirectLogin,
		Status:   http.StatusUnauthorized,
		Err:      domain.ErrAuthRequired,
	}
}

func errCartEmpty() *apperrors.AppError {
	return &apperrors.AppError{
		Code:     "CART_EMPTY",
		Message:  MsgCartEmpty,
		Redirect: RedirectCart,
		Status:   http.StatusConflict,
		Err:      domain.ErrCartEmpty,
	}
}

func errSubmissionInFlight() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "CHECKOUT_IN_PROGRESS",
		Message: MsgSubmitInFlight,
		Status:  http.StatusConflict,
		Err:     domain.ErrSubmissionInFlight,
	}
}

// errStepFailed wraps a failed collaborator call. The collaborator's own
// message is preferred over fallback when it sent one.
func errStepFailed(code string, kind error, fallback string, cause error) *apperrors.AppError {
	return apperrors.BadGateway(code, collaboratorMessage(cause, fallback), fmt.Errorf("%w: %w", kind, cause))
}

func collaboratorMessage(err error, fallback string) string {
	var remote *httpclient.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return fallback
}

func asAppError(err error) (*apperrors.AppError, bool) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
