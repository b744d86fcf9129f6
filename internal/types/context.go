package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxUserID        ContextKey = "ctx_user_id"
	CtxDBTransaction ContextKey = "ctx_db_transaction"
)

// HeaderRequestID carries the request id in and out of the HTTP API
const HeaderRequestID = "X-Request-ID"

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID returns the billing user id set by the request middleware, 0 when absent
func GetUserID(ctx context.Context) int64 {
	if userID, ok := ctx.Value(CtxUserID).(int64); ok {
		return userID
	}
	return 0
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func SetUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}
