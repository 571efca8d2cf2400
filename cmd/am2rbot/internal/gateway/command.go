package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/am2r-community-developers/am2rbot/cmd/am2rbot/internal"
	"github.com/am2r-community-developers/am2rbot/pkg/bus"
	"github.com/am2r-community-developers/am2rbot/pkg/channels"
	"github.com/am2r-community-developers/am2rbot/pkg/commands"
	"github.com/am2r-community-developers/am2rbot/pkg/config"
	"github.com/am2r-community-developers/am2rbot/pkg/gateway"
	"github.com/am2r-community-developers/am2rbot/pkg/logger"
	"github.com/am2r-community-developers/am2rbot/pkg/ratelimit"
)

const shutdownTimeout = 15 * time.Second

func NewGatewayCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "gateway",
		Aliases: []string{"g"},
		Short:   "Connect to Matrix and answer commands",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return gatewayCmd(debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// services is everything the running bot is made of.
type services struct {
	bus     *bus.MessageBus
	matrix  *channels.MatrixChannel
	spawner *commands.Spawner
	gateway *gateway.Gateway
}

func buildServices(cfg *config.Config) (*services, error) {
	msgBus := bus.NewMessageBus()

	matrix, err := channels.NewMatrixChannel(cfg.Matrix, msgBus)
	if err != nil {
		return nil, err
	}

	prefix := cfg.Matrix.CommandPrefix
	if prefix == "" {
		prefix = commands.DefaultPrefix
	}

	spawner := commands.NewSpawner(cfg.Dispatch.MaxConcurrent)
	registry := commands.NewRegistry(commands.BuiltinDefinitions(cfg))
	dispatcher := commands.NewDispatcher(registry, spawner, prefix)
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		CommandsPerMinute: cfg.RateLimit.CommandsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})

	return &services{
		bus:     msgBus,
		matrix:  matrix,
		spawner: spawner,
		gateway: gateway.New(msgBus, matrix, dispatcher, limiter),
	}, nil
}

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := internal.ConfigureLogging(cfg, debug); err != nil {
		return err
	}
	defer logger.DisableFileLogging()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.matrix.Start(ctx); err != nil {
		return fmt.Errorf("failed to start matrix channel: %w", err)
	}

	gwDone := make(chan error, 1)
	go func() {
		gwDone <- svc.gateway.Run(ctx)
	}()

	fmt.Printf("%s am2rbot %s is running as %s. Press Ctrl+C to stop.\n",
		internal.Logo, internal.FormatVersion(), cfg.Matrix.UserID)

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return svc.shutdown(shutdownCtx, gwDone)
}

// shutdown stops intake first, then gives in-flight replies until ctx ends
// to finish.
func (s *services) shutdown(ctx context.Context, gwDone <-chan error) error {
	if err := s.matrix.Stop(ctx); err != nil {
		logger.WarnCF("gateway", "Matrix channel did not stop cleanly", map[string]any{
			"error": err.Error(),
		})
	}
	s.bus.Close()

	var runErr error
	select {
	case runErr = <-gwDone:
	case <-ctx.Done():
	}

	tasksDone := make(chan struct{})
	go func() {
		s.spawner.Wait()
		close(tasksDone)
	}()

	select {
	case <-tasksDone:
		logger.InfoC("gateway", "All command tasks finished")
	case <-ctx.Done():
		logger.WarnC("gateway", "Shutdown timed out with command tasks still running")
	}

	fmt.Println("✓ Gateway stopped")
	return runErr
}
