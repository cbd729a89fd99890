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

var resolveStrategy string

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve sync conflicts and resume",
	Long: `Resolve conflicts left by an interrupted pull.

Strategies:
  local     keep this machine's version of each conflicted section
  remote    keep the remote version of each conflicted section
  sections  merge section by section: an empty side loses, a side that
            extends the other wins, otherwise local wins

After resolution the merged files are committed and sync returns to idle.`,
	Run: func(cmd *cobra.Command, args []string) {
		var strategy sync.ConflictStrategy
		switch resolveStrategy {
		case "local":
			strategy = sync.KeepLocal
		case "remote":
			strategy = sync.KeepRemote
		case "sections":
			strategy = sync.PerSection
		default:
			fatal("unknown strategy %q (want local, remote, or sections)", resolveStrategy)
		}

		cfg := loadConfig()
		logger := log.New(os.Stderr, "[sync] ", log.LstdFlags)
		coord := newCoordinator(cfg, logger)
		defer coord.Close()

		// Re-run the pull so the coordinator observes the conflicted
		// repository and enters resolution.
		if err := coord.InitialSync(context.Background()); err != nil {
			state, _ := coord.Status()
			if state != sync.StateResolvingConflicts {
				fatal("sync failed: %v", err)
			}
		} else {
			fmt.Printf("%s No conflicts to resolve\n", ui.RenderSuccess("✓"))
			return
		}

		if err := coord.ResolveConflicts(context.Background(), strategy); err != nil {
			fatal("resolution failed: %v", err)
		}

		fmt.Printf("%s Conflicts resolved (%s); run 'logbook push' to publish\n",
			ui.RenderSuccess("✓"), resolveStrategy)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveStrategy, "strategy", "local", "conflict strategy: local, remote, or sections")
	rootCmd.AddCommand(resolveCmd)
}
