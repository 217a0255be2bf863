package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/liquescentremedies/SillyTavern/internal/dice"
)

// createRollCommand rolls dice notation directly, without a template.
func createRollCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roll <formula>",
		Short: "Roll dice notation (e.g. 2d6+1) and print the total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := dice.Evaluate(args[0])
			if err != nil {
				color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), err.Error())
				return fmt.Errorf("roll failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		},
	}
}
