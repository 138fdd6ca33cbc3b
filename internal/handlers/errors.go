package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Machine-readable error codes of the API.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodePermission         = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeDuplicate          = "DUPLICATE"
	CodePrecondition       = "PRECONDITION_FAILED"
	CodeInsufficientCredit = "INSUFFICIENT_CREDIT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL"
)

// respondError maps a service error onto its status code and error body. Internal failures are
// logged with their cause and answered with a generic message.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var creditErr *apperrors.InsufficientCreditError
	var preErr *apperrors.PreconditionError
	switch {
	case errors.As(err, &creditErr):
		logger.Warn(action+" rejected by credit limit", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: err.Error(),
			Code:  CodeInsufficientCredit,
			Details: map[string]any{
				"accountID":       creditErr.AccountID,
				"availableCredit": creditErr.AvailableCredit.String(),
				"requiredAmount":  creditErr.RequiredAmount.String(),
				"shortfall":       creditErr.Shortfall.String(),
			},
		})
	case errors.As(err, &preErr):
		logger.Warn(action+" precondition failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    CodePrecondition,
			Details: map[string]any{"unpaidParticipants": preErr.UnpaidParticipants},
		})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: CodeValidation})
	case errors.Is(err, apperrors.ErrPermission):
		logger.Warn("Permission denied: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error(), Code: CodePermission})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Not found: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: CodeNotFound})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: CodeConflict})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate: "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: CodeDuplicate})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to " + action, Code: CodeInternal})
	}
}

// respondBindError answers a request whose body or query failed to bind.
func respondBindError(c *gin.Context, err error, what string) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + what + ": " + err.Error(), Code: CodeValidation})
}

// actorFromContext returns the authenticated member id, answering 401 when it is missing.
func actorFromContext(c *gin.Context) (string, bool) {
	memberID, ok := middleware.GetMemberIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Member ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized", Code: CodeUnauthorized})
		return "", false
	}
	return memberID, true
}

const maxIdempotencyKeyLen = 128

// idempotencyKey merges the Idempotency-Key header into the key carried in the body.
// Both may be given only when they agree.
func idempotencyKey(c *gin.Context, bodyKey string) (string, bool) {
	header := c.GetHeader("Idempotency-Key")
	switch {
	case len(header) > maxIdempotencyKeyLen:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Idempotency-Key header is too long", Code: CodeValidation})
		return "", false
	case header == "":
		return bodyKey, true
	case bodyKey == "" || bodyKey == header:
		return header, true
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Idempotency-Key header and idempotencyKey field disagree",
			Code:  CodeValidation,
		})
		return "", false
	}
}
