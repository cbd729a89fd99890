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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show working copy and sync status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "[git] ", log.LstdFlags)
		svc := newService(cfg, logger)

		fmt.Println(ui.RenderHeader("logbook status"))
		fmt.Printf("  Repository: %s\n", cfg.RepoPath)
		fmt.Printf("  Remote:     %s\n", cfg.RemoteURL)
		if version, err := svc.Version(context.Background()); err == nil {
			fmt.Printf("  Git:        %s\n", ui.RenderMuted(version))
		}

		if !svc.IsCloned() {
			fmt.Printf("  State:      %s\n", ui.RenderWarn("not cloned"))
			fmt.Println(ui.RenderMuted("  Run 'logbook sync' to clone."))
			return
		}

		status, err := svc.Status(context.Background())
		if err != nil {
			fatal("status failed: %v", err)
		}

		fmt.Printf("  Branch:     %s\n", ui.RenderAccent(status.Branch))

		coord := newCoordinator(cfg, logger)
		defer coord.Close()
		conflicted := 0
		for _, path := range status.ModifiedFiles {
			if content, err := coord.ReadFile(path); err == nil && sync.HasConflictMarkers(string(content)) {
				conflicted++
			}
		}
		if conflicted > 0 {
			fmt.Printf("  Sync:       %s (%d file(s); run 'logbook resolve')\n",
				ui.RenderError("conflicts"), conflicted)
		}

		if status.HasUncommittedChanges {
			fmt.Printf("  Changes:    %s (%d modified, %d untracked)\n",
				ui.RenderWarn("uncommitted"), len(status.ModifiedFiles), len(status.UntrackedFiles))
		} else {
			fmt.Printf("  Changes:    %s\n", ui.RenderSuccess("clean"))
		}
		fmt.Printf("  Ahead:      %d  Behind: %d\n", status.AheadCount, status.BehindCount)

		if status.AheadCount > 0 {
			fmt.Println(ui.RenderMuted("  Local commits not yet pushed; 'logbook push' will send them."))
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
