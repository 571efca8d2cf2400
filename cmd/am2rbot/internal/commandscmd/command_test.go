package commandscmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/config"
)

func TestNewCommandsCommand(t *testing.T) {
	cmd := NewCommandsCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "commands", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	assert.True(t, cmd.HasSubCommands())

	try, _, err := cmd.Find([]string{"try"})
	require.NoError(t, err)
	assert.Equal(t, "try <message>", try.Use)
}

func TestListCommands(t *testing.T) {
	var buf bytes.Buffer
	listCommands(&buf, config.DefaultConfig())

	out := buf.String()
	assert.Contains(t, out, "!ping")
	assert.Contains(t, out, "!whereis <item>")
	assert.Contains(t, out, "whereis aliases:")
	assert.Contains(t, out, "spider ball")
	assert.Contains(t, out, "[whereis_spiderball.gif]")
}

func TestListCommands_CustomPrefix(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Matrix.CommandPrefix = "?"

	var buf bytes.Buffer
	listCommands(&buf, cfg)

	assert.Contains(t, buf.String(), "?changelog")
	assert.NotContains(t, buf.String(), "!changelog")
}

func TestTryMessage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "ping",
			text: "!ping",
			want: []string{"[text]", commands.PongText},
		},
		{
			name: "whereis hit",
			text: "!whereis   Bomb ",
			want: []string{"[markdown]", "whereis_bombs.gif"},
		},
		{
			name: "whereis miss",
			text: "!whereis nothing here",
			want: []string{"[markdown]", commands.ItemNotFoundText},
		},
		{
			name: "unknown command",
			text: "!dance",
			want: []string{`(unknown command "dance", no reply)`},
		},
		{
			name: "chatter",
			text: "hello",
			want: []string{"(not a command)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tryMessage(context.Background(), &buf, config.DefaultConfig(), tt.text))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestTryMessage_Attachment(t *testing.T) {
	dir := t.TempDir()
	gif := []byte("GIF89a\x01\x00")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whereis_spiderball.gif"), gif, 0o600))

	cfg := config.DefaultConfig()
	cfg.WhereIs.Attachments.Enabled = true
	cfg.WhereIs.Attachments.AssetsDir = dir

	var buf bytes.Buffer
	require.NoError(t, tryMessage(context.Background(), &buf, cfg, "!whereis spider ball"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[attachment]"), out)
	assert.Contains(t, out, "Spider Ball (image/gif, 8 bytes)")
}
