package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var limit int

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "Show the messages of a session",
	Long:  `Display the conversation of a session, the active one when no session is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.ctrl.Store()
		id := store.ActiveID()
		if len(args) == 1 {
			if id, err = resolveSession(store, args[0]); err != nil {
				return err
			}
		}

		sess, ok := store.Session(id)
		if !ok {
			return fmt.Errorf("session not found: %s", id)
		}

		msgs := sess.Messages
		if limit > 0 && len(msgs) > limit {
			msgs = msgs[len(msgs)-limit:]
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), renderHistory(sess.DisplayTitle(), msgs, ""))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages (0 for all)")
}
