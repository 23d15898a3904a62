package constants

const (
	ERROR_INTERNAL_ERROR    = "Something went wrong, please try again later"
	ERROR_PROVIDER          = "The payment or identity provider is unavailable, please try again later"
	INVALID_INPUT           = "Invalid input"
	MISSING_LOGIN_INPUT     = "Email and password are required"
	INVALID_CREDENTIALS     = "Invalid email or password"
	EMAIL_ALREADY_EXISTS    = "An account with this email already exists"
	ACCOUNT_NOT_FOUND       = "Account not found"
	ACCOUNT_NOT_ACTIVE      = "Account is not active"
	UNAUTHORIZED            = "Please sign in to continue"
	SESSION_EXPIRED         = "Your session has expired, please sign in again"
	FORBIDDEN               = "You do not have permission to perform this action"
	NOT_ADMIN               = "Administrator access required"
	ORDER_NOT_FOUND         = "Order not found"
	ORDER_NOT_DRAFT         = "Only draft orders can be deleted"
	ORDER_NOT_EDITABLE      = "Only draft or pending orders can be edited"
	INVALID_TRANSITION      = "This status change is not allowed"
	ORDER_ALREADY_PAID      = "Order is already paid"
	PAYMENT_NOT_FOUND       = "Payment not found"
	MESSAGE_NOT_FOUND       = "Message not found"
	WRITER_NOT_FOUND        = "Writer not found"
	TOO_MANY_REQUESTS       = "Too many requests, please slow down"
	DATA_INPUT_IS_NOT_UUID  = "Invalid id"
	UPLOAD_FAILED           = "File upload failed"
	TOO_MANY_FILES          = "At most 20 files can be attached"
	FILE_TOO_LARGE          = "Each file must be 50MB or smaller"
	INVALID_WEBHOOK         = "Invalid webhook signature"
	SIGNED_OUT              = "Signed out"
	SIGNED_IN               = "Signed in"
	ORDER_DELETED           = "Order deleted"
	MESSAGE_SENT            = "Message sent"
	UNSUPPORTED_OAUTH       = "Unsupported sign-in provider"
	OAUTH_EMAIL_UNAVAILABLE = "The provider did not return an email address"
	PAYMENT_DECLINED        = "The payment was declined"
	AMOUNT_MISMATCH         = "The paid amount does not match the order total, contact support"
)
