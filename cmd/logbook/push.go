package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkeller/logbook/internal/sync"
	"github.com/mkeller/logbook/internal/ui"
)

var pushMessage string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit local changes and push them to the remote",
	Long: `Pull the latest remote changes, commit anything modified locally, and
push. If the network is unreachable the commit still lands locally and
the push is deferred until connectivity returns (see 'logbook daemon').`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		coord := newCoordinator(cfg, logger)
		defer coord.Close()

		message := pushMessage
		if message == "" {
			message = "logbook sync " + time.Now().Format(time.RFC3339)
		}

		if err := coord.PushChanges(context.Background(), message); err != nil {
			state, _ := coord.Status()
			if state == sync.StateResolvingConflicts {
				fmt.Fprintf(os.Stderr, "%s Pull hit conflicts: %v\n", ui.RenderWarn("!"), err)
				fmt.Fprintln(os.Stderr, "Run 'logbook resolve --strategy local|remote|sections' to finish.")
				os.Exit(1)
			}
			fatal("push failed: %v", err)
		}

		if coord.PendingOfflineChanges() {
			fmt.Printf("%s Offline: changes committed locally, push deferred\n", ui.RenderWarn("!"))
			return
		}
		fmt.Printf("%s Pushed\n", ui.RenderSuccess("✓"))
	},
}

func init() {
	pushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "commit message")
	rootCmd.AddCommand(pushCmd)
}
