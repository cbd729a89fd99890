package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkeller/logbook/internal/creds"
	"github.com/mkeller/logbook/internal/ui"
)

var (
	loginUsername string
	loginToken    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials for the remote",
	Long: `Store the username and access token used to authenticate pushes and
pulls. Credentials are kept in a mode-0600 file and injected into the
remote URL only for the duration of each network operation.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		username := loginUsername
		token := loginToken
		reader := bufio.NewReader(os.Stdin)

		if username == "" {
			fmt.Print("Username: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				fatal("failed to read username: %v", err)
			}
			username = strings.TrimSpace(line)
		}
		if token == "" {
			fmt.Print("Token: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				fatal("failed to read token: %v", err)
			}
			token = strings.TrimSpace(line)
		}

		if username == "" || token == "" {
			fatal("username and token are required")
		}

		store := creds.NewFileStore(cfg.CredentialsFile)
		if err := store.Save(creds.Credentials{Username: username, Token: token}); err != nil {
			fatal("failed to save credentials: %v", err)
		}

		fmt.Printf("%s Credentials saved for %s\n", ui.RenderSuccess("✓"), username)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store := creds.NewFileStore(cfg.CredentialsFile)
		if err := store.Delete(); err != nil {
			fatal("failed to remove credentials: %v", err)
		}

		fmt.Printf("%s Credentials removed\n", ui.RenderSuccess("✓"))
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "remote username")
	loginCmd.Flags().StringVarP(&loginToken, "token", "t", "", "access token")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
