package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var attachSession string

// attachCmd represents the attach command
var attachCmd = &cobra.Command{
	Use:   "attach <file>...",
	Short: "Upload documents or import JSON fragments into a session",
	Long: `Index files for the active session, one after another.

Files ending in .json are read locally and normalized into {id, text}
fragments before they are imported; any other file (txt, md, pdf, docx, csv)
is uploaded as-is. Files larger than 20 MB are rejected before upload.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer := newTerminalRenderer(cmd.OutOrStdout(), os.Stderr)
		a, err := openApp(renderer)
		if err != nil {
			return err
		}
		defer a.Close()

		if attachSession != "" {
			id, err := resolveSession(a.ctrl.Store(), attachSession)
			if err != nil {
				return err
			}
			if err := a.ctrl.SwitchChat(id); err != nil {
				return err
			}
		}

		return a.ctrl.AttachFiles(cmd.Context(), args...)
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().StringVarP(&attachSession, "session", "s", "", "Session id, list position or id prefix")
}
