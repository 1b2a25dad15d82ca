package cmd

import (
	"os"
	"strings"

	"github.com/iksnae/wakechat/internal"
	"github.com/spf13/cobra"
)

var askSession string

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question in the active session",
	Long: `Send a single question to the backend and print the answer.

The question is scoped to the active session unless --session selects another
one, which then becomes active. A backend that does not answer in time is woken
up and the question is retried once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer := newTerminalRenderer(cmd.OutOrStdout(), os.Stderr)
		a, err := openApp(renderer)
		if err != nil {
			return err
		}
		defer a.Close()

		if askSession != "" {
			id, err := resolveSession(a.ctrl.Store(), askSession)
			if err != nil {
				return err
			}
			if err := a.ctrl.SwitchChat(id); err != nil {
				return err
			}
		}

		question := strings.Join(args, " ")
		if err := a.ctrl.Send(cmd.Context(), question); err != nil {
			internal.LogDebug("Ask failed: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Session id, list position or id prefix")
}
