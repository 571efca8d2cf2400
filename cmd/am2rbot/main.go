// am2rbot answers AM2R community commands in Matrix rooms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal"
	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal/commandscmd"
	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal/configcmd"
	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal/gateway"
	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal/version"
)

func NewAm2rbotCommand() *cobra.Command {
	short := fmt.Sprintf("%s am2rbot - AM2R community Matrix bot v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:           "am2rbot",
		Short:         short,
		Example:       "am2rbot gateway --debug",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&internal.ConfigPathFlag, "config", "c", "",
		"Path to config.json (default $AM2RBOT_CONFIG or ~/.am2rbot/config.json)")

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		commandscmd.NewCommandsCommand(),
		configcmd.NewConfigCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewAm2rbotCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
