package constants

// Context keys
const (
	ContextKeyUser   = "current_user"
	ContextKeyUserID = "user_id"
	ContextKeyTask   = "task"
)

// Authentication
const (
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"
	MinPasswordLength   = 6
	MaxPasswordLength   = 72
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxTagLength         = 30
)

// AI suggestions
const (
	MaxAISuggestedTasks = 10
	MaxAIInputLength    = 4000
)
