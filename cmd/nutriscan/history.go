package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/nutriscan/internal/nutrition"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the nutrition history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved nutrition entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		entries, err := a.history.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No saved entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %s\n", e.ID, e.SavedAt.Local().Format("2006-01-02 15:04"), e.FoodLabel)
			printNutrients(out, nutrition.Essential(e.Nutrients))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved nutrition entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.history.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
