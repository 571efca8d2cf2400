package commandscmd

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// printRoom is a commands.Room that writes every reply to w.
type printRoom struct {
	w  io.Writer
	mu sync.Mutex
}

func (r *printRoom) ID() string { return "!local:am2rbot" }

func (r *printRoom) SendText(_ context.Context, text string) error {
	return r.print("text", text)
}

func (r *printRoom) SendMarkdown(_ context.Context, markdown string) error {
	return r.print("markdown", markdown)
}

func (r *printRoom) SendAttachment(_ context.Context, caption, mimeType string, data []byte) error {
	return r.print("attachment", fmt.Sprintf("%s (%s, %d bytes)", caption, mimeType, len(data)))
}

func (r *printRoom) print(kind, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.w, "[%s]\n%s\n", kind, body)
	return err
}
