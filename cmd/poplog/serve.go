package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			instanceProfile, storeInstance, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				return err
			}

			printGreetings(cmd, instanceProfile)
			if err := s.Start(ctx); err != nil {
				slog.Error("server stopped with error", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
}

func printGreetings(cmd *cobra.Command, p *profile.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "poplog %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(out, "Running in %s mode\n", p.Mode)
		fmt.Fprintf(out, "Database driver: %s\n", p.Driver)
		fmt.Fprintf(out, "Database: %s\n", p.DSN)
	}
	if len(p.Addr) == 0 {
		fmt.Fprintf(out, "Listening on port %d\n", p.Port)
	} else {
		fmt.Fprintf(out, "Listening on %s:%d\n", p.Addr, p.Port)
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop")
}
