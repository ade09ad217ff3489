// main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"peerchat/internal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		useUI      bool
		logFile    string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "peerchat [host:port]",
		Short: "Chat with everyone connected to a peerchat server",
		Long: `peerchat connects to ws://<host:port>/socket, waits for the server to
assign it a name, then sends every line typed on stdin.

Commands:
  pm: <name> <word>   send a private message (first word only)
  peerdatarequest     ask the server who is online
  anything else       broadcast to everyone`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Addr = args[0]
			}
			if cmd.Flags().Changed("ui") {
				cfg.UI = useUI
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFile = logFile
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := internal.NewLogger(cfg.LogFile, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting session", zap.String("addr", cfg.Addr), zap.Bool("ui", cfg.UI))
			if cfg.UI {
				err = internal.RunWithUI(ctx, cfg.Addr, logger)
			} else {
				client := internal.NewClient(cfg.Addr,
					internal.WithInput(cmd.InOrStdin()),
					internal.WithOutput(cmd.OutOrStdout()),
					internal.WithLogger(logger),
				)
				err = client.Connect(ctx)
			}
			if err != nil && ctx.Err() == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\npeerchat: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&useUI, "ui", false, "run the terminal UI")
	cmd.Flags().StringVar(&logFile, "log-file", "chat.log", "diagnostics log file (empty disables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every frame")

	return cmd
}

