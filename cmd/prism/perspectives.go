package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"prism/internal/gateway/app"
	"prism/internal/perspective"
)

func newPerspectivesCmd() *cobra.Command {
	var (
		mode   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "perspectives",
		Short: "List perspective sets",
		Long: `List the perspectives a mode runs with, including overrides from
PRISM_PERSPECTIVES_FILE. The yaml output can be edited and fed back as an
override file.

Examples:
  prism perspectives
  prism perspectives --mode committee -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.NewRegistry(loadConfig())
			if err != nil {
				return err
			}
			m, err := perspective.ParseMode(mode)
			if err != nil {
				return err
			}
			set, err := reg.Set(m)
			if err != nil {
				return err
			}
			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(perspective.File{m: set.All()})
			case "table", "":
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "#\tNAME\tDESCRIPTION")
				for _, d := range set.All() {
					fmt.Fprintf(w, "%d\t%s\t%s\n", d.Index+1, d.Name, d.Description)
				}
				return w.Flush()
			default:
				return fmt.Errorf("unknown output %q (want table or yaml)", output)
			}
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "worldview", "Perspective set: worldview or committee")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml)")
	return cmd
}
