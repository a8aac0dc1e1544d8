package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jabiru-analytics/jabiru/internal/ai"
	"github.com/jabiru-analytics/jabiru/internal/utils"
)

var (
	modelsFile string
	modelsJSON bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model price table used for cost estimates",
	Example: `  jabiru models
  jabiru models --file ./prices.json
  jabiru models --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ai.NewPriceTable()
		path := modelsFile
		if path == "" && cfg != nil {
			path = cfg.PricingFile
		}
		if path != "" {
			m, err := ai.LoadCatalogFromJSON(path)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			p.Merge(m)
		}
		current := ai.DefaultModel
		if cfg != nil && cfg.Model != "" {
			current = cfg.Model
		}
		return renderModels(cmd.OutOrStdout(), p, current, modelsJSON)
	},
}

func renderModels(w io.Writer, p *ai.PriceTable, current string, asJSON bool) error {
	models := p.Models()
	if asJSON {
		b, err := utils.PrettyJSON(models)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"", "Model", "Context", "Input $/1M", "Output $/1M"})
	for _, m := range models {
		mark := ""
		if m.Name == current {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, m.Name, m.ContextTokens, m.InputPerM, m.OutputPerM})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintf(w, "Unknown models are priced like %s.\n", ai.DefaultModel)
	return nil
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsFile, "file", "", "JSON price overrides to merge (defaults to pricing_file from config)")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print as JSON")
}
