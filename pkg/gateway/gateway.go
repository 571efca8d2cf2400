// Package gateway connects the inbound message bus to the command
// dispatcher.
package gateway

import (
	"context"

	"github.com/am2r-community-developers/am2rbot/pkg/bus"
	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/logger"
	"github.com/am2r-community-developers/am2rbot/pkg/ratelimit"
)

// RoomProvider hands out the reply handle for a chat.
type RoomProvider interface {
	Room(chatID string) commands.Room
}

// Gateway consumes inbound messages and dispatches the commands in them.
type Gateway struct {
	bus        *bus.MessageBus
	rooms      RoomProvider
	dispatcher *commands.Dispatcher
	limiter    *ratelimit.Limiter
}

// New creates a Gateway. A nil limiter disables rate limiting.
func New(msgBus *bus.MessageBus, rooms RoomProvider, dispatcher *commands.Dispatcher, limiter *ratelimit.Limiter) *Gateway {
	return &Gateway{
		bus:        msgBus,
		rooms:      rooms,
		dispatcher: dispatcher,
		limiter:    limiter,
	}
}

// Run processes messages until ctx ends or the bus is closed. Handlers run
// detached, so Run never waits on a reply being sent.
func (g *Gateway) Run(ctx context.Context) error {
	logger.InfoC("gateway", "Gateway loop started")
	defer logger.InfoC("gateway", "Gateway loop stopped")

	for {
		msg, ok := g.bus.ConsumeInbound(ctx)
		if !ok {
			return nil
		}
		g.handle(ctx, msg)
	}
}

func (g *Gateway) handle(ctx context.Context, msg bus.InboundMessage) {
	name, args, ok := commands.Parse(g.dispatcher.Prefix(), msg.Content)
	if !ok {
		return
	}

	if !g.limiter.Allow(msg.SenderID) {
		logger.WarnCF("gateway", "Rate limit exceeded, dropping command", map[string]any{
			"sender_id": msg.SenderID,
			"chat_id":   msg.ChatID,
		})
		return
	}

	res := g.dispatcher.DispatchCommand(ctx, g.rooms.Room(msg.ChatID), name, args)
	if !res.Matched {
		logger.DebugCF("gateway", "No command matched", map[string]any{
			"command": res.Command,
			"chat_id": msg.ChatID,
		})
		return
	}

	logger.InfoCF("gateway", "Dispatched command", map[string]any{
		"command":    res.Command,
		"sender_id":  msg.SenderID,
		"chat_id":    msg.ChatID,
		"message_id": msg.MessageID,
		"task_id":    res.TaskID,
	})
}
