// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/tokosakti/toko-backend/internal/i18n"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every endpoint returns. Success responses
// carry Data (and Meta for listings); failures carry Error with a stable
// machine-readable code.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// messageOr returns message unless it is empty, in which case the
// translated fallback for the caller's language is used.
func messageOr(c *gin.Context, message, key string, args ...interface{}) string {
	if message != "" {
		return message
	}
	return i18n.T(GetLangFromContext(c), key, args...)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST",
		messageOr(c, message, i18n.KeyValidationInvalid, "request"), details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED",
		messageOr(c, message, i18n.KeyAuthRequired), nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN",
		messageOr(c, message, i18n.KeyAdminAccessDenied), nil)
}

// NotFoundResponse translates "<resource>.not_found", so resource must be
// an i18n key prefix ("product", "order", ...).
func NotFoundResponse(c *gin.Context, resource string) {
	message := i18n.T(GetLangFromContext(c), resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// ConflictResponse takes an explicit code because 409s are the one class
// where clients branch on it (INSUFFICIENT_STOCK vs EMAIL_TAKEN).
func ConflictResponse(c *gin.Context, code, message string, details interface{}) {
	ErrorResponse(c, http.StatusConflict, code, message, details)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	message := i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func stringFromContext(c *gin.Context, key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if s, ok := value.(string); ok {
			return s, true
		}
	}
	return "", false
}

func GetLangFromContext(c *gin.Context) string {
	if lang, ok := stringFromContext(c, "lang"); ok {
		return lang
	}
	return "id"
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, "user_id")
}

func GetUserTypeFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, "user_type")
}
