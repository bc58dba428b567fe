package main

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset ID",
	Short: "Discard edits and restore a record to its imported values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ws, closeFn, err := openWorkspace(ctx, "store")
		if err != nil {
			return err
		}
		defer closeFn()

		view, err := ws.Reset(ctx, args[0])
		if err != nil {
			return err
		}
		return printView(cmd.OutOrStdout(), view, false)
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
