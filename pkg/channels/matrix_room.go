package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/format"
	"maunium.net/go/mautrix/id"

	"github.com/am2r-community-developers/am2rbot/pkg/logger"
)

// matrixRoom implements commands.Room for one Matrix room.
type matrixRoom struct {
	client *mautrix.Client
	roomID id.RoomID
}

func newMatrixRoom(client *mautrix.Client, roomID id.RoomID) *matrixRoom {
	return &matrixRoom{client: client, roomID: roomID}
}

func (r *matrixRoom) ID() string {
	return r.roomID.String()
}

func (r *matrixRoom) SendText(ctx context.Context, text string) error {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	}
	return r.send(ctx, content)
}

// SendMarkdown renders markdown to Matrix HTML; the plain body keeps the
// source text for clients without HTML support.
func (r *matrixRoom) SendMarkdown(ctx context.Context, markdown string) error {
	content := format.RenderMarkdown(markdown, true, false)
	return r.send(ctx, &content)
}

// SendAttachment uploads data to the content repository and posts it as an
// image, audio, video or file event. An empty mimeType is sniffed from data.
func (r *matrixRoom) SendAttachment(ctx context.Context, caption, mimeType string, data []byte) error {
	if mimeType == "" {
		mimeType = detectMIMEType(data)
	}

	logger.InfoCF("matrix", "Uploading media to content repo", map[string]any{
		"room_id":   r.roomID.String(),
		"mime_type": mimeType,
		"size":      len(data),
	})

	resp, err := r.client.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: data,
		ContentType:  mimeType,
		FileName:     caption,
	})
	if err != nil {
		return fmt.Errorf("failed to upload media to Matrix: %w", err)
	}

	content := &event.MessageEventContent{
		MsgType: mimeToMsgType(mimeType),
		Body:    caption,
		URL:     resp.ContentURI.CUString(),
		Info: &event.FileInfo{
			MimeType: mimeType,
			Size:     len(data),
		},
	}
	return r.send(ctx, content)
}

func (r *matrixRoom) send(ctx context.Context, content *event.MessageEventContent) error {
	resp, err := r.client.SendMessageEvent(ctx, r.roomID, event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("failed to send matrix message: %w", err)
	}
	logger.DebugCF("matrix", "Sent message to room", map[string]any{
		"room_id":  r.roomID.String(),
		"event_id": resp.EventID.String(),
		"msg_type": content.MsgType,
	})
	return nil
}

func detectMIMEType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

// mimeToMsgType maps a MIME type to the matching Matrix message type.
func mimeToMsgType(mimeType string) event.MessageType {
	base := mimeType
	if idx := strings.Index(mimeType, "/"); idx > 0 {
		base = mimeType[:idx]
	}
	switch base {
	case "image":
		return event.MsgImage
	case "audio":
		return event.MsgAudio
	case "video":
		return event.MsgVideo
	default:
		return event.MsgFile
	}
}
