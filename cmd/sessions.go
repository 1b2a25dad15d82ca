package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new chat session and make it active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.ctrl.NewChat()
		sess, _ := a.ctrl.Store().Session(id)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(sess.DisplayTitle()), idStyle.Render(id))
		return nil
	},
}

// switchCmd represents the switch command
var switchCmd = &cobra.Command{
	Use:   "switch <session>",
	Short: "Make another session active",
	Long:  `Make another session active. The session may be given by id, list position or id prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := resolveSession(a.ctrl.Store(), args[0])
		if err != nil {
			return err
		}
		if err := a.ctrl.SwitchChat(id); err != nil {
			return err
		}
		sess, _ := a.ctrl.Store().Session(id)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s %s\n", titleStyle.Render(sess.DisplayTitle()), idStyle.Render(id))
		return nil
	},
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:     "delete <session>",
	Aliases: []string{"rm"},
	Short:   "Delete a session and ask the backend to forget its documents",
	Long: `Delete a session locally. The backend is asked to purge the session's indexed
documents in the background; a failed purge is logged and otherwise ignored.
Deleting the active session activates the first remaining one, or a new empty
session when none remain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.ctrl.Store()
		id, err := resolveSession(store, args[0])
		if err != nil {
			return err
		}
		sess, _ := store.Session(id)
		if err := a.ctrl.DeleteChat(id); err != nil {
			return err
		}

		active, _ := store.Session(store.ActiveID())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s, active: %s\n",
			titleStyle.Render(sess.DisplayTitle()), titleStyle.Render(active.DisplayTitle()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(deleteCmd)
}
