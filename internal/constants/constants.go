package constants

// Session / context keys
const (
	SessionName         = "crm_session"
	ContextKeyUserID    = "user_id"
	ContextKeyWorkspace = "workspace"
	ContextKeyMember    = "workspace_member"
	ContextKeyCallList  = "call_list"
)

// Pagination
const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const MinPasswordLength = 8

// Call list engine
const (
	// BulkInsertBatchSize bounds a single enqueue INSERT so large id sets
	// never hit statement/placeholder limits.
	BulkInsertBatchSize = 500

	// ClaimNextAttempts bounds how many queue heads "claim next" will race
	// for before giving up with a conflict.
	ClaimNextAttempts = 3

	// DefaultFollowupOffsetDays is used when an outcome requests a follow-up
	// without an explicit due date.
	DefaultFollowupOffsetDays = 3
)
