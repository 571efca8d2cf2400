package channels

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/am2r-community-developers/am2rbot/pkg/bus"
	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/config"
	"github.com/am2r-community-developers/am2rbot/pkg/logger"
)

type MatrixChannel struct {
	*BaseChannel
	client       *mautrix.Client
	matrixConfig config.MatrixConfig
	syncer       *mautrix.DefaultSyncer
	stopSyncer   context.CancelFunc
	syncDone     chan struct{}
	startTime    time.Time // events before this timestamp are ignored (initial sync flood guard)
}

func NewMatrixChannel(matrixCfg config.MatrixConfig, msgBus *bus.MessageBus) (*MatrixChannel, error) {
	client, err := mautrix.NewClient(matrixCfg.Homeserver, id.UserID(matrixCfg.UserID), matrixCfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}

	if matrixCfg.DeviceID != "" {
		client.DeviceID = id.DeviceID(matrixCfg.DeviceID)
	}

	syncer, ok := client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return nil, fmt.Errorf("unexpected matrix syncer %T", client.Syncer)
	}

	return &MatrixChannel{
		BaseChannel:  NewBaseChannel("matrix", msgBus, matrixCfg.AllowFrom),
		client:       client,
		matrixConfig: matrixCfg,
		syncer:       syncer,
		startTime:    time.Now(),
	}, nil
}

func (c *MatrixChannel) Start(ctx context.Context) error {
	logger.InfoC("matrix", "Starting Matrix client...")

	c.syncer.OnEventType(event.EventMessage, c.handleMessage)
	c.syncer.OnEventType(event.StateMember, c.handleMemberEvent)

	syncCtx, cancel := context.WithCancel(ctx)
	c.stopSyncer = cancel
	c.syncDone = make(chan struct{})

	go func() {
		defer close(c.syncDone)
		err := c.client.SyncWithContext(syncCtx)
		if err != nil && syncCtx.Err() == nil {
			logger.ErrorCF("matrix", "Sync error", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	c.setRunning(true)
	logger.InfoCF("matrix", "Matrix client started", map[string]any{
		"user_id":    c.matrixConfig.UserID,
		"homeserver": c.matrixConfig.Homeserver,
	})
	return nil
}

func (c *MatrixChannel) Stop(ctx context.Context) error {
	logger.InfoC("matrix", "Stopping Matrix client...")

	if c.stopSyncer != nil {
		c.stopSyncer()
	}
	if c.syncDone != nil {
		select {
		case <-c.syncDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.setRunning(false)
	logger.InfoC("matrix", "Matrix client stopped")
	return nil
}

// Room returns the reply handle for a room the bot received a message in.
func (c *MatrixChannel) Room(chatID string) commands.Room {
	return newMatrixRoom(c.client, id.RoomID(chatID))
}

func (c *MatrixChannel) handleMemberEvent(ctx context.Context, evt *event.Event) {
	memberEvt := evt.Content.AsMember()

	if memberEvt.Membership != event.MembershipInvite ||
		evt.GetStateKey() != string(c.client.UserID) ||
		!c.matrixConfig.JoinOnInvite {
		return
	}

	roomID := evt.RoomID
	logger.InfoCF("matrix", "Auto-joining room after invite", map[string]any{
		"room_id": roomID.String(),
		"inviter": evt.Sender.String(),
	})

	if _, err := c.client.JoinRoomByID(ctx, roomID); err != nil {
		logger.ErrorCF("matrix", "Failed to join room", map[string]any{
			"room_id": roomID.String(),
			"error":   err.Error(),
		})
		return
	}
	logger.InfoCF("matrix", "Successfully joined room", map[string]any{
		"room_id": roomID.String(),
	})
}

func (c *MatrixChannel) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == c.client.UserID {
		return
	}

	// Ignore historical events delivered on initial sync (flood guard).
	// Matrix timestamps are in milliseconds.
	if time.UnixMilli(evt.Timestamp).Before(c.startTime) {
		logger.DebugCF("matrix", "Ignoring historical event", map[string]any{
			"event_id": evt.ID.String(),
			"event_ts": evt.Timestamp,
			"start_ts": c.startTime.UnixMilli(),
		})
		return
	}

	msgEvt := evt.Content.AsMessage()

	// Edits would re-run the command a second time.
	if msgEvt.RelatesTo != nil && msgEvt.RelatesTo.Type == event.RelReplace {
		return
	}

	if msgEvt.MsgType != event.MsgText {
		logger.DebugCF("matrix", "Ignoring non-text message", map[string]any{
			"type":     msgEvt.MsgType,
			"event_id": evt.ID.String(),
		})
		return
	}

	logger.DebugCF("matrix", "Received message", map[string]any{
		"sender":   evt.Sender.String(),
		"room_id":  evt.RoomID.String(),
		"event_id": evt.ID.String(),
	})

	metadata := map[string]string{
		"timestamp": fmt.Sprintf("%d", evt.Timestamp),
	}
	if msgEvt.RelatesTo != nil && msgEvt.RelatesTo.InReplyTo != nil {
		metadata["reply_to_msg_id"] = msgEvt.RelatesTo.InReplyTo.EventID.String()
	}

	c.HandleMessage(ctx, evt.Sender.String(), evt.RoomID.String(), evt.ID.String(), msgEvt.Body, metadata)
}
