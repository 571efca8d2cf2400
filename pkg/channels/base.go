package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/am2r-community-developers/am2rbot/pkg/bus"
	"github.com/am2r-community-developers/am2rbot/pkg/logger"
)

// BaseChannel holds what every chat channel shares: its name, the bus it
// publishes to and the sender allow-list.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowList []string
	running   atomic.Bool
}

func NewBaseChannel(name string, msgBus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		bus:       msgBus,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed reports whether senderID may issue commands. An empty list
// allows everyone. Entries match the full Matrix ID or its localpart, with
// or without the leading "@".
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	localpart := strings.TrimPrefix(senderID, "@")
	if i := strings.Index(localpart, ":"); i >= 0 {
		localpart = localpart[:i]
	}

	for _, allowed := range c.allowList {
		allowed = strings.TrimSpace(allowed)
		if allowed == senderID || strings.TrimPrefix(allowed, "@") == localpart {
			return true
		}
	}
	return false
}

// HandleMessage publishes an inbound message from an allowed sender.
func (c *BaseChannel) HandleMessage(ctx context.Context, senderID, chatID, messageID, content string, metadata map[string]string) {
	if !c.IsAllowed(senderID) {
		logger.WarnCF(c.name, "Ignoring message from unauthorized user", map[string]any{
			"sender_id": senderID,
		})
		return
	}

	msg := bus.InboundMessage{
		Channel:   c.name,
		SenderID:  senderID,
		ChatID:    chatID,
		MessageID: messageID,
		Content:   content,
		Metadata:  metadata,
	}
	if !c.bus.PublishInbound(ctx, msg) {
		logger.WarnCF(c.name, "Dropped inbound message", map[string]any{
			"chat_id":    chatID,
			"message_id": messageID,
		})
	}
}
