package models

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusApproved  = "approved"
	StatusDeclined  = "declined"
	StatusRejected  = "rejected"
	StatusDone      = "done"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusCanceled  = "canceled"
)

// Labels written into a booking after a local accept/decline move.
const (
	LabelAccepted = "Accepted"
	LabelDeclined = "Declined"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// SessionSlotKey is the fixed name of the persisted session slot.
	SessionSlotKey = "USER_DATA"

	// DefaultSessionTTL is 30 days, in seconds.
	DefaultSessionTTL = 30 * 24 * 60 * 60

	// DefaultTimezone is used for calendar days and report labels.
	DefaultTimezone = "Asia/Manila"

	// ReportDays is the length of every summary-report series.
	ReportDays = 30

	DefaultPaginationSize = 5

	// Messages allowed per RateLimitWindow seconds.
	RateLimitMessages = 20

	RateLimitWindow = 60

	// DefaultRequestTimeout bounds every backend call, seconds.
	DefaultRequestTimeout = 15
)
