package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/upload"
)

var (
	analyzeJSON   bool
	analyzeNoSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <photo>",
	Short: "Identify the food in a photo and show its nutrition",
	Long: `Identify the food in a photo and show its nutrition.

The result is saved to the nutrition history unless --no-save is given.

Examples:
  nutriscan analyze ./lunch.jpg
  nutriscan analyze --json --no-save ./apple.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.cfg.Validate(); err != nil {
			return err
		}

		food, _, err := a.foodService(cmd.Context())
		if err != nil {
			return err
		}

		photo, err := upload.ReadPhoto(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		result, err := food.Analyze(cmd.Context(), photo)
		if err != nil {
			var f *analysis.Failure
			if analyzeJSON && errors.As(err, &f) {
				_ = printJSON(out, analysis.OutcomeOf(err))
			}
			return err
		}

		entryID := ""
		if !analyzeNoSave {
			entry, err := a.history.Save(cmd.Context(), result.Description, result.Nutrients, result.ImageURL)
			if err != nil {
				return fmt.Errorf("failed to save nutrition entry: %w", err)
			}
			entryID = entry.ID
		}

		essential := nutrition.Essential(result.Nutrients)
		if analyzeJSON {
			return printJSON(out, map[string]any{
				"success":            true,
				"description":        result.Description,
				"confidence":         result.Confidence,
				"imageUrl":           result.ImageURL,
				"allLabels":          result.AllLabels,
				"nutrients":          result.Nutrients,
				"essentialNutrients": essential,
				"entryId":            entryID,
			})
		}

		fmt.Fprintf(out, "%s (%.0f%% confidence)\n", result.Description, result.Confidence*100)
		fmt.Fprintf(out, "Image: %s\n", result.ImageURL)
		printNutrients(out, essential)
		if entryID != "" {
			fmt.Fprintf(out, "Saved as %s\n", entryID)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not record the result in history")
}
