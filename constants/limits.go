package constants

import "time"

const (
	SESSION_COOKIE   = "access_token"
	MAX_ORDER_FILES  = 20
	MAX_FILE_SIZE    = 50 * 1024 * 1024
	MAX_UPLOAD_TOTAL = 100 * 1024 * 1024
	// whole request bodies are held in memory, so this bounds a request's
	// footprint; the form fields get a megabyte on top of the files
	MAX_REQUEST_BODY = MAX_UPLOAD_TOTAL + 1024*1024

	USER_RECENT_ORDERS  = 3
	ADMIN_RECENT_ORDERS = 5
	DISPLAY_DATE_FORMAT = "Jan 02, 2006"

	SIGN_IN_ATTEMPTS     = 10
	SIGN_IN_WINDOW       = 15 * time.Minute
	INBOX_SENDS_PER_HOUR = 30
	DEFAULT_PAGE_SIZE    = 20
	MAX_PAGE_SIZE        = 100
)
