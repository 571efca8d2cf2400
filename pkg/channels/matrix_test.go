package channels

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/util/ptr"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/am2r-community-developers/am2rbot/pkg/bus"
	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/config"
)

const (
	testBotID  = "@am2rbot:example.org"
	testRoomID = "!room:example.org"
)

type sentEvent struct {
	RoomID  string
	Content map[string]any
}

type upload struct {
	ContentType string
	Data        []byte
}

// fakeHomeserver answers the handful of client-server endpoints the bot uses.
type fakeHomeserver struct {
	mu        sync.Mutex
	sent      []sentEvent
	uploads   []upload
	joins     []string
	forbidden bool
}

func (f *fakeHomeserver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.Contains(path, "/send/m.room.message/"):
		if f.forbidden {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"errcode":"M_FORBIDDEN","error":"not in room"}`)
			return
		}
		var content map[string]any
		if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.sent = append(f.sent, sentEvent{RoomID: roomFromPath(path), Content: content})
		io.WriteString(w, `{"event_id":"$sent"}`)
	case strings.HasSuffix(path, "/upload"):
		data, _ := io.ReadAll(r.Body)
		f.uploads = append(f.uploads, upload{ContentType: r.Header.Get("Content-Type"), Data: data})
		io.WriteString(w, `{"content_uri":"mxc://example.org/whereis"}`)
	case strings.HasSuffix(path, "/join"):
		room := roomFromPath(path)
		f.joins = append(f.joins, room)
		io.WriteString(w, `{"room_id":"`+room+`"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errcode":"M_UNRECOGNIZED","error":"unrecognized"}`)
	}
}

func roomFromPath(path string) string {
	_, rest, ok := strings.Cut(path, "/rooms/")
	if !ok {
		return ""
	}
	room, _, _ := strings.Cut(rest, "/")
	return room
}

func (f *fakeHomeserver) events() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.sent...)
}

func newTestMatrixChannel(t *testing.T, mutate func(*config.MatrixConfig)) (*MatrixChannel, *fakeHomeserver, *bus.MessageBus) {
	t.Helper()
	hs := &fakeHomeserver{}
	srv := httptest.NewServer(hs)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Matrix
	cfg.Homeserver = srv.URL
	cfg.UserID = testBotID
	cfg.AccessToken = "test-token"
	if mutate != nil {
		mutate(&cfg)
	}

	msgBus := bus.NewMessageBus()
	ch, err := NewMatrixChannel(cfg, msgBus)
	require.NoError(t, err)
	ch.startTime = time.Now().Add(-time.Minute)
	return ch, hs, msgBus
}

func textEvent(sender, body string) *event.Event {
	return &event.Event{
		Sender:    id.UserID(sender),
		Type:      event.EventMessage,
		RoomID:    id.RoomID(testRoomID),
		ID:        id.EventID("$incoming"),
		Timestamp: time.Now().UnixMilli(),
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType: event.MsgText,
			Body:    body,
		}},
	}
}

func consumeWithin(t *testing.T, msgBus *bus.MessageBus, d time.Duration) (bus.InboundMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return msgBus.ConsumeInbound(ctx)
}

func TestMatrixChannel_PublishesTextMessages(t *testing.T) {
	ch, _, msgBus := newTestMatrixChannel(t, nil)

	ch.handleMessage(context.Background(), textEvent("@alice:example.org", "!whereis bomb"))

	msg, ok := consumeWithin(t, msgBus, time.Second)
	require.True(t, ok)
	assert.Equal(t, "matrix", msg.Channel)
	assert.Equal(t, testRoomID, msg.ChatID)
	assert.Equal(t, "@alice:example.org", msg.SenderID)
	assert.Equal(t, "$incoming", msg.MessageID)
	assert.Equal(t, "!whereis bomb", msg.Content)
}

func TestMatrixChannel_FiltersEvents(t *testing.T) {
	ch, _, msgBus := newTestMatrixChannel(t, func(cfg *config.MatrixConfig) {
		cfg.AllowFrom = config.FlexibleStringSlice{"@alice:example.org"}
	})

	own := textEvent(testBotID, "!ping")

	historical := textEvent("@alice:example.org", "!ping")
	historical.Timestamp = time.Now().Add(-time.Hour).UnixMilli()

	edit := textEvent("@alice:example.org", "!ping")
	edit.Content.Parsed.(*event.MessageEventContent).RelatesTo = &event.RelatesTo{
		Type:    event.RelReplace,
		EventID: id.EventID("$orig"),
	}

	notice := textEvent("@alice:example.org", "!ping")
	notice.Content.Parsed.(*event.MessageEventContent).MsgType = event.MsgNotice

	stranger := textEvent("@mallory:example.org", "!ping")

	for _, evt := range []*event.Event{own, historical, edit, notice, stranger} {
		ch.handleMessage(context.Background(), evt)
	}

	msg, ok := consumeWithin(t, msgBus, 50*time.Millisecond)
	assert.False(t, ok, "unexpected message published: %+v", msg)
}

func TestMatrixChannel_AutoJoinOnInvite(t *testing.T) {
	invite := &event.Event{
		Sender:   id.UserID("@alice:example.org"),
		Type:     event.StateMember,
		RoomID:   id.RoomID("!invited:example.org"),
		StateKey: ptr.Ptr(testBotID),
		Content: event.Content{Parsed: &event.MemberEventContent{
			Membership: event.MembershipInvite,
		}},
	}

	ch, hs, _ := newTestMatrixChannel(t, nil)
	ch.handleMemberEvent(context.Background(), invite)
	assert.Equal(t, []string{"!invited:example.org"}, hs.joins)

	off, offHS, _ := newTestMatrixChannel(t, func(cfg *config.MatrixConfig) { cfg.JoinOnInvite = false })
	off.handleMemberEvent(context.Background(), invite)
	assert.Empty(t, offHS.joins)

	otherInvite := *invite
	otherInvite.StateKey = ptr.Ptr("@someoneelse:example.org")
	ch.handleMemberEvent(context.Background(), &otherInvite)
	assert.Len(t, hs.joins, 1, "invites for other users are ignored")
}

func TestMatrixRoom_SendText(t *testing.T) {
	ch, hs, _ := newTestMatrixChannel(t, nil)
	room := ch.Room(testRoomID)

	require.NoError(t, room.SendText(context.Background(), commands.PongText))

	events := hs.events()
	require.Len(t, events, 1)
	assert.Equal(t, testRoomID, events[0].RoomID)
	assert.Equal(t, "m.text", events[0].Content["msgtype"])
	assert.Equal(t, "🏓 pong 🏓", events[0].Content["body"])
	assert.NotContains(t, events[0].Content, "format")
	assert.Equal(t, testRoomID, room.ID())
}

func TestMatrixRoom_SendMarkdown(t *testing.T) {
	ch, hs, _ := newTestMatrixChannel(t, nil)

	require.NoError(t, ch.Room(testRoomID).SendMarkdown(context.Background(), commands.FAQText))

	events := hs.events()
	require.Len(t, events, 1)
	content := events[0].Content
	assert.Equal(t, "m.text", content["msgtype"])
	assert.Equal(t, "org.matrix.custom.html", content["format"])
	assert.Contains(t, content["formatted_body"], "<strong>Community Updates FaQ</strong>")
	assert.Contains(t, content["body"], "https://am2r-community-developers.github.io/DistributionCenter/faq")
}

func TestMatrixRoom_SendAttachment(t *testing.T) {
	ch, hs, _ := newTestMatrixChannel(t, nil)
	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")

	require.NoError(t, ch.Room(testRoomID).SendAttachment(context.Background(), "Spider Ball", "", gif))

	require.Len(t, hs.uploads, 1)
	assert.Equal(t, "image/gif", hs.uploads[0].ContentType, "mime type is sniffed when empty")
	assert.Equal(t, gif, hs.uploads[0].Data)

	events := hs.events()
	require.Len(t, events, 1)
	content := events[0].Content
	assert.Equal(t, "m.image", content["msgtype"])
	assert.Equal(t, "Spider Ball", content["body"])
	assert.Equal(t, "mxc://example.org/whereis", content["url"])
	info, ok := content["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image/gif", info["mimetype"])
}

func TestMatrixRoom_SendErrorPropagates(t *testing.T) {
	ch, hs, _ := newTestMatrixChannel(t, nil)
	hs.forbidden = true

	err := ch.Room(testRoomID).SendText(context.Background(), "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, mautrix.MForbidden)
}

func TestMimeToMsgType(t *testing.T) {
	assert.Equal(t, event.MsgImage, mimeToMsgType("image/gif"))
	assert.Equal(t, event.MsgAudio, mimeToMsgType("audio/ogg"))
	assert.Equal(t, event.MsgVideo, mimeToMsgType("video/mp4"))
	assert.Equal(t, event.MsgFile, mimeToMsgType("application/pdf"))
	assert.Equal(t, event.MsgFile, mimeToMsgType(""))
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "image/gif", detectMIMEType([]byte("GIF89a\x01\x00")))
	assert.Equal(t, "application/octet-stream", detectMIMEType([]byte("plain words")))
	assert.Equal(t, "application/octet-stream", detectMIMEType(nil))
}
