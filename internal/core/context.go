package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// ContextWithClient records the caller's address and user agent so
// operation logs can name who asked.
func ContextWithClient(ctx context.Context, ip, ua string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ClientFromContext returns the values stored by ContextWithClient.
func ClientFromContext(ctx context.Context) (ip, ua string) {
	ip, _ = ctx.Value(ctxKeyIPAddress).(string)
	ua, _ = ctx.Value(ctxKeyUserAgent).(string)
	return ip, ua
}

// clientFields returns log attributes for the stored client, if any.
func clientFields(ctx context.Context) []any {
	ip, ua := ClientFromContext(ctx)
	var fields []any
	if ip != "" {
		fields = append(fields, "client_ip", ip)
	}
	if ua != "" {
		fields = append(fields, "user_agent", ua)
	}
	return fields
}
