package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/backend"
	"github.com/spf13/cobra"
)

var healthcheckDetails bool

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check local state and backend availability",
	Long: `Check the health of wakechat by verifying:
  • Configuration resolution
  • Local state database access and session count
  • Backend /health endpoint

The backend probe does not wake a sleeping host; use 'wakechat wake' for that.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 wakechat Health Check"))
		_, _ = fmt.Fprintln(out)

		// Step 1: Configuration
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving configuration..."))
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckDetails {
			_, _ = fmt.Fprintf(out, "   Backend: %s\n", cfg.APIBase)
			_, _ = fmt.Fprintf(out, "   State database: %s\n", cfg.DBPath)
			_, _ = fmt.Fprintf(out, "   Ask timeout: %s, upload timeout: %s\n", cfg.AskTimeout, cfg.UploadTimeout)
		}
		_, _ = fmt.Fprintln(out)

		// Step 2: Local state
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Opening local state..."))
		a, err := openApp(nil)
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to open local state:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer a.Close()
		sessions := a.ctrl.Store().List()
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d session(s)", len(sessions))))
		if healthcheckDetails {
			for i, s := range sessions {
				if i == 5 {
					_, _ = fmt.Fprintf(out, "   ... and %d more\n", len(sessions)-5)
					break
				}
				_, _ = fmt.Fprintf(out, "   [%d] %s (%d messages)\n", i+1, internal.Session{Title: s.Title}.DisplayTitle(), s.MessageCount)
			}
		}
		_, _ = fmt.Fprintln(out)

		// Step 3: Backend
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Probing backend..."))
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AskTimeout)
		defer cancel()
		status, err := a.client.Health(ctx)

		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Backend not reachable:"), err)
			if internal.IsTimeout(err) {
				_, _ = fmt.Fprintln(out, "   The host may be asleep; run 'wakechat wake' and try again.")
			}
			return fmt.Errorf("health check failed: backend unavailable at %s", cfg.APIBase)
		}

		printHealth(out, status)
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func printHealth(out io.Writer, status backend.HealthStatus) {
	state := successStyle.Render("ok")
	if !status.OK {
		state = warningStyle.Render("degraded")
	}
	_, _ = fmt.Fprintf(out, "   Backend: %s (%s)\n", status.Backend, state)
	_, _ = fmt.Fprintf(out, "   Collection: %s, vector dim %d, reranker %t\n", status.Collection, status.VectorDim, status.Reranker)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
