package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/strategies"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range strategies.Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
