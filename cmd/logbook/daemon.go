package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mkeller/logbook/internal/daemon"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Watch the working copy and keep it synchronized.

The daemon performs an initial sync, then watches for file changes and
pushes them after a quiet period. While offline, changes accumulate as
local commits and are pushed as soon as the network returns.

Logs rotate through the configured log file; pass --foreground to also
write them to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		var out io.Writer = os.Stderr
		if cfg.LogFile != "" {
			rotated := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     30, // days
			}
			if daemonForeground {
				out = io.MultiWriter(os.Stderr, rotated)
			} else {
				out = rotated
			}
		}
		logger := log.New(out, "[daemon] ", log.LstdFlags)

		coord := newCoordinator(cfg, log.New(out, "[sync] ", log.LstdFlags))

		d, err := daemon.New(coord, cfg.RepoPath, &daemon.Config{Logger: logger})
		if err != nil {
			fatal("failed to start daemon: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		fmt.Printf("Daemon watching %s\n", cfg.RepoPath)
		fmt.Println("Press Ctrl+C to stop...")

		if err := d.Start(ctx); err != nil {
			fatal("daemon exited: %v", err)
		}
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "also log to stderr when a log file is configured")
	rootCmd.AddCommand(daemonCmd)
}
