package domain

import "context"

// Channel is an outbound chat transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, chatID string, content string) error
}
