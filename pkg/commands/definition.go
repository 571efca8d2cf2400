package commands

import "context"

// Room is the reply capability a handler gets for the room a command came from.
// Each method performs one outbound action.
type Room interface {
	ID() string
	SendText(ctx context.Context, text string) error
	SendMarkdown(ctx context.Context, markdown string) error
	SendAttachment(ctx context.Context, caption, mimeType string, data []byte) error
}

// Handler answers one command. Implementations are stateless and may run
// concurrently with themselves.
type Handler interface {
	Handle(ctx context.Context, room Room, args string) error
}

type HandlerFunc func(ctx context.Context, room Room, args string) error

func (f HandlerFunc) Handle(ctx context.Context, room Room, args string) error {
	return f(ctx, room, args)
}

type Definition struct {
	Name        string
	Description string
	Usage       string
	Handler     Handler
}
