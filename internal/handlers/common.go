// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tokosakti/toko-backend/internal/i18n"
	"github.com/tokosakti/toko-backend/internal/services"
	"github.com/tokosakti/toko-backend/internal/utils"
)

// currentUserID reads the authenticated user from the gin context. The auth
// middleware guarantees it is set on protected routes.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

func isAdmin(c *gin.Context) bool {
	userType, _ := utils.GetUserTypeFromContext(c)
	return userType == "admin"
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service-layer errors onto the HTTP surface.
// Anything unrecognized is logged and reported as a 500 without leaking
// internals.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		utils.ConflictResponse(c, "INSUFFICIENT_STOCK",
			i18n.T(lang, i18n.KeyOrderInsufficientStock, stockErr.ProductName, stockErr.Requested, stockErr.Available),
			gin.H{
				"product":   stockErr.ProductName,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			})
		return
	}

	var storageErr *services.StorageError
	if errors.As(err, &storageErr) {
		logrus.WithError(storageErr).Error("Storage failure")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyUploadFailed))
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrCartItemNotFound):
		utils.NotFoundResponse(c, "cart.item")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrProofNotUploaded):
		utils.NotFoundResponse(c, "order.proof")
	case errors.Is(err, services.ErrNotificationNotFound):
		utils.NotFoundResponse(c, "notification")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrProductUnavailable):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductUnavailable), nil)
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartInvalidQty), nil)
	case errors.Is(err, services.ErrEmptyCart):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrOrderNotPayable):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderNotPayable), nil)
	case errors.Is(err, services.ErrOrderNotCancelable):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderNotCancelable), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderInvalidTransition), nil)
	case errors.Is(err, services.ErrEmailTaken):
		utils.ConflictResponse(c, "EMAIL_TAKEN", i18n.T(lang, i18n.KeyAuthEmailExists), nil)
	case errors.Is(err, services.ErrUsernameTaken):
		utils.ConflictResponse(c, "USERNAME_TAKEN", i18n.T(lang, i18n.KeyAuthUsernameExists), nil)
	case errors.Is(err, services.ErrFileTooLarge):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadTooLarge), nil)
	case errors.Is(err, services.ErrFileTypeNotAllowed):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadBadType), nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.NotFoundResponse(c, "resource")
	default:
		logrus.WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}
