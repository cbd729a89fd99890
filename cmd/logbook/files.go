package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkeller/logbook/internal/sync"
	"github.com/mkeller/logbook/internal/ui"
)

var writeCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Write an entry from stdin",
	Long: `Write stdin to an entry in the working copy. The write is atomic and
arms the auto-sync debounce, so a running daemon will commit and push it
after the quiet period.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coord := newCoordinator(cfg, log.New(os.Stderr, "[sync] ", log.LstdFlags))
		defer coord.Close()

		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("failed to read stdin: %v", err)
		}

		if err := coord.WriteFile(args[0], content); err != nil {
			fatal("write failed: %v", err)
		}

		fmt.Printf("%s Wrote %s (%d bytes)\n", ui.RenderSuccess("✓"), args[0], len(content))
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print an entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coord := newCoordinator(cfg, log.New(os.Stderr, "[sync] ", log.LstdFlags))
		defer coord.Close()

		content, err := coord.ReadFile(args[0])
		if err != nil {
			if errors.Is(err, sync.ErrFileNotFound) {
				fatal("no such entry: %s", args[0])
			}
			fatal("read failed: %v", err)
		}

		os.Stdout.Write(content)
	},
}

var lsExt string

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entries in the working copy",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coord := newCoordinator(cfg, log.New(os.Stderr, "[sync] ", log.LstdFlags))
		defer coord.Close()

		files, err := coord.ListFiles(lsExt)
		if err != nil {
			fatal("list failed: %v", err)
		}

		for _, f := range files {
			fmt.Println(f)
		}
	},
}

func init() {
	lsCmd.Flags().StringVar(&lsExt, "ext", "", "only list entries with this extension (e.g. md)")
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(lsCmd)
}
