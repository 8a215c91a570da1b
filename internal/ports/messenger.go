package ports

import "context"

// Messenger sends outbound messages back to the chat channel.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}
