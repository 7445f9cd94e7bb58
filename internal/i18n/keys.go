// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthEmailExists        = "auth.email_exists"
	KeyAuthUsernameExists     = "auth.username_exists"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// User
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"

	// Catalog
	KeyProductNotFound    = "product.not_found"
	KeyProductUnavailable = "product.unavailable"
	KeyProductLiked       = "product.liked"

	// Cart
	KeyCartItemAdded    = "cart.item_added"
	KeyCartItemUpdated  = "cart.item_updated"
	KeyCartItemRemoved  = "cart.item_removed"
	KeyCartCleared      = "cart.cleared"
	KeyCartItemNotFound = "cart.item_not_found"
	KeyCartEmpty        = "cart.empty"
	KeyCartInvalidQty   = "cart.invalid_quantity"

	// Orders
	KeyOrderPlaced            = "order.placed"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderInsufficientStock = "order.insufficient_stock"
	KeyOrderNotPayable        = "order.not_payable"
	KeyOrderNotCancelable     = "order.not_cancelable"
	KeyOrderCancelled         = "order.cancelled"
	KeyOrderProofUploaded     = "order.proof_uploaded"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Upload
	KeyUploadTooLarge = "upload.too_large"
	KeyUploadBadType  = "upload.bad_type"
	KeyUploadFailed   = "upload.failed"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
