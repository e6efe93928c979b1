// Package auditcontext carries request metadata consumed by the audit log.
package auditcontext

import (
	"context"
	"strings"
)

const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

type ctxKey string

const (
	requestIDKey ctxKey = "audit.request_id"
	ipAddressKey ctxKey = "audit.ip_address"
	userAgentKey ctxKey = "audit.user_agent"
	actorTypeKey ctxKey = "audit.actor_type"
	actorIDKey   ctxKey = "audit.actor_id"
	actorRolKey  ctxKey = "audit.actor_rol"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey, strings.TrimSpace(ip))
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey, strings.TrimSpace(ua))
}

// WithActor records who performs the request. actorID is the usuario id for
// user actors and the job name for system actors.
func WithActor(ctx context.Context, actorType, actorID, rol string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, strings.TrimSpace(actorType))
	ctx = context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
	return context.WithValue(ctx, actorRolKey, strings.TrimSpace(rol))
}

func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func IPAddress(ctx context.Context) string { return stringValue(ctx, ipAddressKey) }

func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey) }

func Actor(ctx context.Context) (actorType, actorID, rol string) {
	return stringValue(ctx, actorTypeKey), stringValue(ctx, actorIDKey), stringValue(ctx, actorRolKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
