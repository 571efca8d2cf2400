package commandscmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal"
	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/config"
)

func NewCommandsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List bot commands and whereis aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			listCommands(cmd.OutOrStdout(), cfg)
			return nil
		},
	}

	cmd.AddCommand(newTryCommand())
	return cmd
}

func newTryCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "try <message>",
		Short:   "Dispatch a message locally and print the replies",
		Example: `am2rbot commands try '!whereis spider ball'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return tryMessage(cmd.Context(), cmd.OutOrStdout(), cfg, strings.Join(args, " "))
		},
	}
}

func prefixOf(cfg *config.Config) string {
	if cfg.Matrix.CommandPrefix != "" {
		return cfg.Matrix.CommandPrefix
	}
	return commands.DefaultPrefix
}

func listCommands(w io.Writer, cfg *config.Config) {
	prefix := prefixOf(cfg)
	reg := commands.NewRegistry(commands.BuiltinDefinitions(cfg))

	fmt.Fprintf(w, "%-24s %s\n", "COMMAND", "DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, def := range reg.Definitions() {
		fmt.Fprintf(w, "%-24s %s\n", prefix+def.Usage, def.Description)
	}

	whereis, ok := reg.Resolve("whereis").(*commands.WhereIs)
	if !ok {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "whereis aliases:")
	for _, entry := range whereis.Entries() {
		line := strings.Join(entry.Aliases, ", ")
		if entry.Attachment != nil {
			line += " [" + entry.Attachment.File + "]"
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func tryMessage(ctx context.Context, w io.Writer, cfg *config.Config, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	spawner := commands.NewSpawner(0)
	reg := commands.NewRegistry(commands.BuiltinDefinitions(cfg))
	dispatcher := commands.NewDispatcher(reg, spawner, prefixOf(cfg))
	room := &printRoom{w: w}

	res := dispatcher.Dispatch(ctx, room, text)
	spawner.Wait()

	switch {
	case res.Command == "":
		fmt.Fprintln(w, "(not a command)")
	case !res.Matched:
		fmt.Fprintf(w, "(unknown command %q, no reply)\n", res.Command)
	}
	return nil
}
