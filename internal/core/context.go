package core

import "context"

type contextKey string

const ctxKeyIPAddress contextKey = "client_ip"

// ContextWithIPAddress adds the client IP to context so it is stored with
// the run record.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
