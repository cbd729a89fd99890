package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkeller/logbook/internal/sync"
	"github.com/mkeller/logbook/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or pull the journal from the remote",
	Long: `Bring the local working copy up to date with the remote.

If the working copy does not exist yet it is cloned; otherwise the remote
branch is fetched and local commits are rebased on top of it. A conflict
leaves the repository awaiting resolution; run 'logbook resolve' to pick
a side.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		coord := newCoordinator(cfg, logger)
		defer coord.Close()

		if err := coord.InitialSync(context.Background()); err != nil {
			state, _ := coord.Status()
			if state == sync.StateResolvingConflicts {
				fmt.Fprintf(os.Stderr, "%s Pull hit conflicts: %v\n", ui.RenderWarn("!"), err)
				fmt.Fprintln(os.Stderr, "Run 'logbook resolve --strategy local|remote|sections' to finish.")
				os.Exit(1)
			}
			fatal("sync failed: %v", err)
		}

		fmt.Printf("%s Working copy up to date at %s\n", ui.RenderSuccess("✓"), cfg.RepoPath)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
