package types

type RunMode string

const (
	// ModeLocal runs the API server in debug mode with the account task worker in process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server; account tasks are drained elsewhere
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
