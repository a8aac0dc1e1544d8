package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jabiru-analytics/jabiru/internal/ai"
)

var tokensModel string

var tokensCmd = &cobra.Command{
	Use:   "tokens <file|->",
	Short: "Count tokens in a file (or stdin) with the model tokenizer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		model := tokensModel
		if model == "" && cfg != nil {
			model = cfg.Model
		}
		if model == "" {
			model = ai.DefaultModel
		}
		p := ai.NewPriceTable()
		if cfg != nil {
			if p, err = loadPrices(cfg); err != nil {
				return err
			}
		}
		n := ai.NewTokenizer(model).Count(string(data), model)
		fmt.Fprintf(cmd.OutOrStdout(), "%d tokens for %s (input cost ≈ $%.4f)\n",
			n, model, p.EstimateCost(model, n, 0))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().StringVar(&tokensModel, "model", "", "model whose tokenizer to use (defaults to the configured model)")
}
