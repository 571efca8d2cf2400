package commands

import (
	"context"
	"strings"
	"unicode"
)

// DefaultPrefix marks a message body as a command.
const DefaultPrefix = "!"

type Result struct {
	Matched bool
	Command string
	Args    string
	// TaskID identifies the detached task; empty when nothing was spawned.
	TaskID string
}

// Dispatcher turns message bodies into detached handler runs.
type Dispatcher struct {
	reg     *Registry
	spawner *Spawner
	prefix  string
}

func NewDispatcher(reg *Registry, spawner *Spawner, prefix string) *Dispatcher {
	if spawner == nil {
		spawner = NewSpawner(0)
	}
	return &Dispatcher{reg: reg, spawner: spawner, prefix: prefix}
}

// Dispatch parses text, resolves the command and starts its handler without
// waiting for it. Replies to two dispatches may reach the room in any order.
// Bodies that are not commands, and unknown commands, produce no reply.
func (d *Dispatcher) Dispatch(ctx context.Context, room Room, text string) Result {
	name, args, ok := Parse(d.prefix, text)
	if !ok {
		return Result{}
	}
	return d.DispatchCommand(ctx, room, name, args)
}

// DispatchCommand is Dispatch for a body the caller already ran through
// Parse. name must be normalized.
func (d *Dispatcher) DispatchCommand(ctx context.Context, room Room, name, args string) Result {
	res := Result{Matched: d.reg.Has(name), Command: name, Args: args}
	if !res.Matched {
		return res
	}

	handler := d.reg.Resolve(name)
	res.TaskID = d.spawner.Go(ctx, name, func(ctx context.Context) error {
		return handler.Handle(ctx, room, args)
	})
	return res
}

// Prefix returns the string that marks a message body as a command.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Parse splits a message body into a normalized command name and the
// trimmed remainder. It fails when the body does not start with prefix or
// names no command.
func Parse(prefix, text string) (name, args string, ok bool) {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, prefix) {
		return "", "", false
	}
	body = strings.TrimPrefix(body, prefix)

	rest := ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		body, rest = body[:i], body[i:]
	}

	name = NormalizeName(body)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(rest), true
}

// NormalizeName trims surrounding whitespace and lowercases s.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
