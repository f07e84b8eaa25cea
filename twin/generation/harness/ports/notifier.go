package harnessports

import "context"

// Notifier delivers a short text message to the twin's owner.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
