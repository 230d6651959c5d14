package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-go-golems/subwatch/pkg/config"
	"github.com/go-go-golems/subwatch/pkg/fakeserver"
	"github.com/go-go-golems/subwatch/pkg/logging"
	"github.com/spf13/cobra"
)

func newFakeServerCmd() *cobra.Command {
	var (
		addr string
		seed int
	)

	cmd := &cobra.Command{
		Use:   "fake-server",
		Short: "Serve an in-memory submission server for local runs",
		Long: `Serve the long-poll, history, submit and supervisor endpoints from
memory. The cursor starts at 10 and moves on every submission or
supervisor action; GET /super/notify moves it by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			gin.SetMode(gin.ReleaseMode)
			srv := fakeserver.New()
			for i := 1; i <= seed; i++ {
				srv.Add(fmt.Sprintf("team%d", i), fmt.Sprintf("print(%d)\n", i))
			}

			bound, err := srv.Start(addr)
			if err != nil {
				return err
			}
			log.Info().Str("addr", bound.String()).Int("seeded", seed).Msg("fake server listening")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().IntVar(&seed, "seed", 0, "number of sample submissions to start with")
	return cmd
}
