package cmd

import (
	"fmt"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/backend"
	"github.com/spf13/cobra"
)

// wakeCmd represents the wake command
var wakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Wake a sleeping backend",
	Long: `Probe the backend's /health endpoint, giving a sleeping free-tier host up to the
configured wake timeout to start. This is the same probe that runs automatically
before retrying a timed out question or upload.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend.NewClient(backend.OptionsFromConfig(cfg))
		if err != nil {
			return err
		}

		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Waking %s", client.BaseURL()), func() error {
			if !client.Wake(cmd.Context()) {
				return fmt.Errorf("no answer")
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("backend at %s did not wake up: %w", client.BaseURL(), err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Backend is awake"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wakeCmd)
}
