package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/wakechat/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat string
	inspectRaw    bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the local state database",
	Long: `Inspect the local key/value state database.

This command shows:
  • Every stored key and the size of its value
  • The persisted chat state (with --raw)

Examples:
  wakechat inspect                       # Keys and sizes
  wakechat inspect --raw                 # Pretty-print the saved chat state
  wakechat inspect --db ./state.db --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := internal.OpenDatabase(cfg.DBPath)
		if err != nil {
			return &internal.PersistenceError{Op: "open", Key: cfg.DBPath, Err: err}
		}
		defer db.Close()

		storage := internal.NewStorage(db)
		return inspectStorage(cmd.OutOrStdout(), storage)
	},
}

func inspectStorage(out io.Writer, storage *internal.Storage) error {
	keys, err := storage.Keys()
	if err != nil {
		return err
	}

	if inspectRaw {
		raw, ok, err := storage.Get(internal.StateKey)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(out, "(no saved chat state)")
			return nil
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(raw), "", "  "); err != nil {
			// show what is there even if it does not parse
			_, _ = fmt.Fprintln(out, raw)
			return nil
		}
		_, _ = fmt.Fprintln(out, pretty.String())
		return nil
	}

	if inspectFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"database": cfg.DBPath, "keys": keys})
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintf(out, "📊 %s\n\n", cfg.DBPath)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "Key\tSize\t")
	for _, k := range names {
		_, _ = fmt.Fprintf(w, "%s\t%s\t\n", k, humanize.Bytes(uint64(keys[k])))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "table", "Output format (table, json)")
	inspectCmd.Flags().BoolVar(&inspectRaw, "raw", false, "Print the saved chat state")
}
