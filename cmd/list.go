package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/wakechat/internal"
	"github.com/spf13/cobra"
)

var listJSON bool

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	Long:  `List all chat sessions in display order. The active session is marked with a star.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.ctrl.Store().List()
		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}
		displaySessions(cmd.OutOrStdout(), sessions)
		return nil
	},
}

func displaySessions(out io.Writer, sessions []internal.SessionSummary) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 %d session(s)", len(sessions))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \t#\tTitle\tMessages\tID\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 72))

	for i, s := range sessions {
		marker := " "
		if s.Active {
			marker = activeStyle.Render("*")
		}

		title := internal.Session{Title: s.Title}.DisplayTitle()
		if len(title) > 40 {
			title = title[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n",
			marker, i+1, titleStyle.Render(title), countStyle.Render(strconv.Itoa(s.MessageCount)), idStyle.Render(s.ID))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: use the position or an id prefix, e.g. `wakechat switch 1`"))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print sessions as JSON")
}
