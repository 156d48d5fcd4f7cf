package ports

import "context"

// SettingsStore persists user billing preferences across flows.
type SettingsStore interface {
	AuthRequired(ctx context.Context) (bool, error)
	SetAuthRequired(ctx context.Context, required bool) error
}
