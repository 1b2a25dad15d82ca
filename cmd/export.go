package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportAll bool
	toStdout  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session]",
	Short: "Export sessions to file",
	Long: `Export chat sessions to various formats (jsonl, md, yaml, json).

Without arguments the active session is exported; pass a session (id, list
position or id prefix) or --all to export others. Use 'wakechat list' to see
available sessions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.ctrl.Store()
		var ids []string
		switch {
		case exportAll:
			for _, s := range store.List() {
				ids = append(ids, s.ID)
			}
		case len(args) == 1:
			id, err := resolveSession(store, args[0])
			if err != nil {
				return err
			}
			ids = []string{id}
		default:
			ids = []string{store.ActiveID()}
		}

		sessions := make([]*internal.Session, 0, len(ids))
		for _, id := range ids {
			if sess, ok := store.Session(id); ok {
				sessions = append(sessions, &sess)
			}
		}

		if toStdout {
			for _, sess := range sessions {
				if err := exporter.Export(sess, cmd.OutOrStdout()); err != nil {
					return &internal.ExportError{Format: exporter.Extension(), Path: "-", Err: err}
				}
			}
			return nil
		}

		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			for _, sess := range sessions {
				path := filepath.Join(outputDir, export.FileName(sess, exporter))
				if err := export.ExportToFile(exporter, sess, path); err != nil {
					return err
				}
				internal.LogDebug("Exported %s to %s", sess.ID, path)
			}
			return nil
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", len(sessions), outputDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of files")
}
