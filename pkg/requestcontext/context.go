// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them. Keeping the package
// free of net/http lets services import only what they need.
//
// The request time accessor doubles as the injectable clock for the whole
// core: every expiry comparison reads Now(ctx), so tests pin time with
// WithTime instead of sleeping against real timers.
//
// Usage in services (read values):
//
//	principalID := requestcontext.PrincipalID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipalID(ctx, principalID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "crewbase/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	principalIDKey struct{}
	sessionIDKey   struct{}
	tenantIDKey    struct{}
	tierKey        struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipalID = principalIDKey{}
	ContextKeySessionID   = sessionIDKey{}
	ContextKeyTenantID    = tenantIDKey{}
	ContextKeyTier        = tierKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// PrincipalID retrieves the authenticated principal ID from the context.
// Returns the zero value (nil UUID) if not set.
func PrincipalID(ctx context.Context) id.PrincipalID {
	if pid, ok := ctx.Value(ContextKeyPrincipalID).(id.PrincipalID); ok {
		return pid
	}
	return id.PrincipalID{}
}

// WithPrincipalID injects a principal ID into the context.
func WithPrincipalID(ctx context.Context, pid id.PrincipalID) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipalID, pid)
}

// SessionID retrieves the session ID from the context.
func SessionID(ctx context.Context) id.SessionID {
	if sid, ok := ctx.Value(ContextKeySessionID).(id.SessionID); ok {
		return sid
	}
	return id.SessionID{}
}

// WithSessionID injects a session ID into the context.
func WithSessionID(ctx context.Context, sid id.SessionID) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sid)
}

// TenantID retrieves the tenant ID from the context. Zero for platform-tier
// principals.
func TenantID(ctx context.Context) id.TenantID {
	if tid, ok := ctx.Value(ContextKeyTenantID).(id.TenantID); ok {
		return tid
	}
	return id.TenantID{}
}

// WithTenantID injects a tenant ID into the context.
func WithTenantID(ctx context.Context, tid id.TenantID) context.Context {
	return context.WithValue(ctx, ContextKeyTenantID, tid)
}

// Tier retrieves the resolved access tier from the context. Empty if the
// request has not passed the session middleware.
func Tier(ctx context.Context) id.Tier {
	if t, ok := ctx.Value(ContextKeyTier).(id.Tier); ok {
		return t
	}
	return ""
}

// WithTier injects an access tier into the context.
func WithTier(ctx context.Context, t id.Tier) context.Context {
	return context.WithValue(ctx, ContextKeyTier, t)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need one consistent instant per batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
