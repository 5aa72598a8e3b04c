package settings

import "context"

// Store persists the single platform-wide settings document.
//
// Error Contract:
//   - Get returns ErrNotFound when nothing has been stored yet; the service
//     layer substitutes defaults
//   - Put overwrites unconditionally
type Store interface {
	Get(ctx context.Context) (SessionSettings, error)
	Put(ctx context.Context, s SessionSettings) error
}
