package commands

import (
	"context"
	"sync"
)

type sentMessage struct {
	Kind     string // text | markdown | attachment
	Body     string
	MIMEType string
	Data     []byte
}

type fakeRoom struct {
	id  string
	err error

	mu   sync.Mutex
	sent []sentMessage
}

func newFakeRoom() *fakeRoom {
	return &fakeRoom{id: "!room:example.org"}
}

func (r *fakeRoom) ID() string { return r.id }

func (r *fakeRoom) record(m sentMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func (r *fakeRoom) SendText(_ context.Context, text string) error {
	return r.record(sentMessage{Kind: "text", Body: text})
}

func (r *fakeRoom) SendMarkdown(_ context.Context, md string) error {
	return r.record(sentMessage{Kind: "markdown", Body: md})
}

func (r *fakeRoom) SendAttachment(_ context.Context, caption, mimeType string, data []byte) error {
	return r.record(sentMessage{Kind: "attachment", Body: caption, MIMEType: mimeType, Data: data})
}

func (r *fakeRoom) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentMessage, len(r.sent))
	copy(out, r.sent)
	return out
}
